package domain

import "time"

// StoredEntity is the admitted, persisted form of a candidate.
// Slug and the (Source, SourceID) pair are each globally unique.
type StoredEntity struct {
	ID          int64
	Slug        string
	Source      Source
	SourceID    string
	Kind        Kind
	Name        string
	Tagline     string
	Description string
	Website     string
	LogoURL     string
	Tags        []string
	LaunchDate  time.Time

	Upvotes  int
	Stars    int
	Comments int

	QualityScore int

	Classified       bool
	IsCommercialSaaS bool
	TargetAudience   TargetAudience
	ProductType      ProductType
	BusinessCategory BusinessCategory
	Confidence       float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Engagement is the combined counter used when ranking eviction victims
// against an incoming candidate's quality score.
func (e StoredEntity) Engagement() int {
	return e.Upvotes + e.Stars
}

// Candidate rebuilds a candidate view of the stored row so pure components
// (scorer, gatekeeper) can re-run against persisted entities.
func (e StoredEntity) Candidate() CandidateRecord {
	return CandidateRecord{
		Kind:        e.Kind,
		Name:        e.Name,
		Tagline:     e.Tagline,
		Description: e.Description,
		Website:     e.Website,
		LogoURL:     e.LogoURL,
		Tags:        e.Tags,
		LaunchDate:  e.LaunchDate,
		Source:      e.Source,
		SourceID:    e.SourceID,
		Upvotes:     e.Upvotes,
		Stars:       e.Stars,
		Comments:    e.Comments,
	}
}
