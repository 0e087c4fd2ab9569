package cache

// ScopedKeyer wraps a Keyer with a prefix so each user's layouts and
// artifacts live in their own namespace:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
// Analyses depend only on the entry text and model, so they are left
// unscoped and shared.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to layout and artifact keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// UserKeyer returns a keyer scoped to userID.
func UserKeyer(inner Keyer, userID string) Keyer {
	return NewScopedKeyer(inner, "user:"+userID+":")
}

func (k *ScopedKeyer) LayoutKey(countsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(countsHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

func (k *ScopedKeyer) AnalysisKey(model, text string) string {
	return k.inner.AnalysisKey(model, text)
}
