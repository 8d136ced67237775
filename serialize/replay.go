package serialize

import (
	"io"

	"github.com/skiplang/skiprt/memo"
)

// FakeCaller reconstructs one cached Invocation's result from a decoded
// record by replaying the same Context.addDependency/EvaluateDone path a
// real evaluation takes (spec §4.10: "this reuses the same insertion
// logic as normal evaluation"), rather than poking the revision list
// directly.
type FakeCaller struct {
	ResolveTarget func(id uint32) *memo.Revision
	DecodeValue   func(b []byte) memo.Value
}

// Load reads every record from r and, for each invocation record, replays
// a fake call on inv so its value is installed through the ordinary
// EvaluateDone machinery. Non-invocation records are returned in emission
// order, but only after the whole stream has been read and every
// invocation record replayed, so ResolveTarget must already be able to
// resolve the ids those invocation records reference.
func (fc *FakeCaller) Load(r *Reader, newInvocation func(vtableID uint32, userBytes []byte) *memo.Invocation) ([]Record, error) {
	var objectRecords []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return objectRecords, nil
		}
		if err != nil {
			return objectRecords, err
		}

		if rec.Tag != TagInvocation {
			objectRecords = append(objectRecords, rec)
			continue
		}

		inv := newInvocation(rec.VTableID, rec.UserBytes)
		ctx := memo.NewContext(inv, memo.NewestVisibleTxn())
		for _, id := range rec.TargetIDs {
			if target := fc.ResolveTarget(id); target != nil {
				ctx.AddDependencyForReplay(target)
			}
		}
		ctx.EvaluateDone(fc.DecodeValue(rec.MemoValue))
	}
}
