package worker

import "rubin.dev/protocol/model"

// blockInfo is one entry of the block-info map, keyed by block id (spec
// §4.3 rule 5, §4.4 ReceivedBlock). Entries written by record carry the
// full body the worker validated; entries written by recordIDs carry only
// the operation and endorsement ids, with a zero block.
type blockInfo struct {
	block   model.Block
	opIDs   []model.OperationId
	endoIDs []model.EndorsementId
}

// blockInfoStore is the "block_id -> (operations, endorsements)" map the
// spec requires for joining header knowledge against independently-held
// bodies (spec §4.3 rule 5).
type blockInfoStore struct {
	infos map[model.BlockId]blockInfo
}

func newBlockInfoStore() *blockInfoStore {
	return &blockInfoStore{infos: make(map[model.BlockId]blockInfo)}
}

func (s *blockInfoStore) record(id model.BlockId, block model.Block, opIDs []model.OperationId, endoIDs []model.EndorsementId) {
	s.infos[id] = blockInfo{block: block, opIDs: opIDs, endoIDs: endoIDs}
}

// recordIDs records a block-info entry from ids alone, for blocks the
// worker never received a full body for but that Consensus has now
// integrated (spec §4.4 integrated_block / send_get_blocks_results). It
// leaves an existing entry (e.g. one carrying the body from an earlier
// ReceivedBlock) untouched.
func (s *blockInfoStore) recordIDs(id model.BlockId, opIDs []model.OperationId, endoIDs []model.EndorsementId) {
	if _, exists := s.infos[id]; exists {
		return
	}
	s.infos[id] = blockInfo{opIDs: opIDs, endoIDs: endoIDs}
}

func (s *blockInfoStore) get(id model.BlockId) (blockInfo, bool) {
	info, ok := s.infos[id]
	return info, ok
}
