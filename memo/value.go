package memo

import "github.com/skiplang/skiprt/intern"

// ValueKind tags a MemoValue's payload.
type ValueKind uint8

const (
	KindUndef ValueKind = iota
	KindNull
	KindInt
	KindFloat
	KindShortString
	KindLongString
	KindInterned
	KindException
	KindContext // placeholder marker
	KindWatcher // invalidation-watcher sentinel
)

// Value is the tagged union spec §3 calls MemoValue. Equality is by raw bit
// identity: two Values compare equal iff Kind and payload bits match exactly
// (so two NaN floats with the same bit pattern are "equal" for caching
// purposes, unlike IEEE754 comparison).
type Value struct {
	Kind   ValueKind
	Int    int64       // KindInt, or raw bits for KindFloat
	Str    string      // KindShortString (packed small string)
	Obj    *intern.IObj // KindInterned, KindException, KindLongString
	Wakers []waiter     // KindContext: callers registered on this placeholder
}

func Undef() Value { return Value{Kind: KindUndef} }
func Null() Value  { return Value{Kind: KindNull} }
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }
func Float(bits int64) Value { return Value{Kind: KindFloat, Int: bits} }
func ShortString(s string) Value { return Value{Kind: KindShortString, Str: s} }
func Interned(o *intern.IObj) Value { return Value{Kind: KindInterned, Obj: o} }
func Exception(o *intern.IObj) Value { return Value{Kind: KindException, Obj: o} }

func contextValue() Value { return Value{Kind: KindContext} }

// Equal implements the spec's "compared by raw bit identity" rule.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt, KindFloat:
		return v.Int == o.Int
	case KindShortString:
		return v.Str == o.Str
	case KindInterned, KindException, KindLongString:
		return v.Obj == o.Obj
	default:
		return true
	}
}

// IsPlaceholder reports whether this value marks a Context still computing.
func (v Value) IsPlaceholder() bool { return v.Kind == KindContext }
