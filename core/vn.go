package core

// VN is the read-only catalog metadata for a single visual novel.
// Instances come from a Catalog and are treated as immutable snapshots;
// the ETL pipeline that refreshes them lives outside this module.
type VN struct {
	ID    string
	Title string

	// Tags maps tag id to relevance in [0,3] (VNDB vote-averaged spoiler-free
	// relevance).
	Tags map[string]float64

	Developers []string
	Staff      []string
	Seiyuu     []string

	// Traits maps trait id to the number of characters exhibiting it.
	Traits map[string]int

	// Rating is the catalog average on a 0-10 scale; 0 means unrated.
	Rating    float64
	VoteCount int

	// LengthMinutes is the estimated play length; 0 means unknown.
	LengthMinutes int

	// Language is the original language code, e.g. "ja".
	Language string
}

// Rating is a single user vote: item id plus a score on the catalog's
// 0-100 vote scale.
type Rating struct {
	ItemID string
	Score  int // 0-100
}

// HardFilters are caller-supplied constraints applied as a final
// intersection over the candidate pool. They never influence which
// candidates the recall sources generate, only which survive.
type HardFilters struct {
	MinRating      float64 // 0-10 scale; 0 disables
	MinLength      int     // minutes; 0 disables
	MaxLength      int     // minutes; 0 disables
	RequiredTags   []string
	ExcludedTags   []string
	RequiredTraits []string
	ExcludedTraits []string
	Language       string // original language; "" disables
}

// Empty reports whether no constraint is set.
func (f *HardFilters) Empty() bool {
	if f == nil {
		return true
	}
	return f.MinRating == 0 && f.MinLength == 0 && f.MaxLength == 0 &&
		len(f.RequiredTags) == 0 && len(f.ExcludedTags) == 0 &&
		len(f.RequiredTraits) == 0 && len(f.ExcludedTraits) == 0 &&
		f.Language == ""
}
