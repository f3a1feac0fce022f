package drawstore

import (
	"encoding/hex"
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/types"
)

// Record is the persisted summary of a draw. The full audit document is
// stored next to it and addressed by the same id.
type Record struct {
	ID        string     `json:"id"`        // ID is the draw identifier (uuid)
	ContestID string     `json:"contestId"` // ContestID groups draws of one contest
	Title     string     `json:"title"`     // Title names the draw inside its contest
	Seed      draw.Seed  `json:"seed"`      // Seed is the seed the draw ran with
	Results   [][]string `json:"results"`   // Results are the winner groups
	Digest    string     `json:"digest"`    // Digest is the hex BLAKE3-256 of the audit document
	CreatedAt int64      `json:"createdAt"` // CreatedAt is the creation time in unix milliseconds
}

// encodeRecord serializes a record as a DrawRecord flatbuffer.
func encodeRecord(r *Record, digest []byte) []byte {
	builder := flatbuffers.NewBuilder(512)

	resultsVec := buildResultsVector(builder, r.Results)
	digestVec := builder.CreateByteVector(digest)
	entropy := builder.CreateString(r.Seed.AdditionalEntropy)
	randomPart := builder.CreateString(r.Seed.RandomPart)
	title := builder.CreateString(r.Title)
	contestID := builder.CreateString(r.ContestID)
	id := builder.CreateString(r.ID)

	types.DrawRecordStart(builder)
	types.DrawRecordAddId(builder, id)
	types.DrawRecordAddContestId(builder, contestID)
	types.DrawRecordAddTitle(builder, title)
	types.DrawRecordAddSeedTimestamp(builder, r.Seed.Timestamp.UnixNano())
	types.DrawRecordAddSeedRandomPart(builder, randomPart)
	types.DrawRecordAddSeedAdditionalEntropy(builder, entropy)
	types.DrawRecordAddResults(builder, resultsVec)
	types.DrawRecordAddDigest(builder, digestVec)
	types.DrawRecordAddCreatedAt(builder, r.CreatedAt)

	builder.Finish(types.DrawRecordEnd(builder))

	return builder.FinishedBytes()
}

// buildResultsVector creates the vector of ResultGroup tables.
func buildResultsVector(builder *flatbuffers.Builder, results [][]string) flatbuffers.UOffsetT {
	groups := make([]flatbuffers.UOffsetT, len(results))

	for i, group := range results {
		members := make([]flatbuffers.UOffsetT, len(group))
		for j, m := range group {
			members[j] = builder.CreateString(m)
		}

		types.ResultGroupStartMembersVector(builder, len(members))
		for j := len(members) - 1; j >= 0; j-- {
			builder.PrependUOffsetT(members[j])
		}
		membersVec := builder.EndVector(len(members))

		types.ResultGroupStart(builder)
		types.ResultGroupAddMembers(builder, membersVec)
		groups[i] = types.ResultGroupEnd(builder)
	}

	types.DrawRecordStartResultsVector(builder, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(groups[i])
	}

	return builder.EndVector(len(groups))
}

// decodeRecord parses a DrawRecord flatbuffer.
// Flatbuffers accessors panic on truncated input, which is reported as ErrCorruptRecord.
func decodeRecord(data []byte) (r *Record, digest []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, digest, err = nil, nil, fmt.Errorf("decode record: %v:\n%w", p, ErrCorruptRecord)
		}
	}()

	if len(data) < flatbuffers.SizeUOffsetT {
		return nil, nil, fmt.Errorf("record of %d bytes:\n%w", len(data), ErrCorruptRecord)
	}

	fb := types.GetRootAsDrawRecord(data, 0)

	r = &Record{
		ID:        string(fb.Id()),
		ContestID: string(fb.ContestId()),
		Title:     string(fb.Title()),
		Seed: draw.NewSeed(
			time.Unix(0, fb.SeedTimestamp()),
			string(fb.SeedRandomPart()),
			string(fb.SeedAdditionalEntropy()),
		),
		Results:   make([][]string, fb.ResultsLength()),
		CreatedAt: fb.CreatedAt(),
	}

	var group types.ResultGroup
	for i := range r.Results {
		fb.Results(&group, i)

		members := make([]string, group.MembersLength())
		for j := range members {
			members[j] = string(group.Members(j))
		}
		r.Results[i] = members
	}

	digest = append([]byte(nil), fb.DigestBytes()...)
	r.Digest = hex.EncodeToString(digest)

	return r, digest, nil
}
