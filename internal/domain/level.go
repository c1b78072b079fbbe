package domain

// VerificationLevel is a KYC trust level. Levels are persisted by name and
// ordered by their position in levelOrder, never by a numeric value.
type VerificationLevel string

const (
	LevelNone        VerificationLevel = ""
	LevelEmail       VerificationLevel = "email"
	LevelPhone       VerificationLevel = "phone"
	LevelSelfie      VerificationLevel = "selfie"
	LevelLicense     VerificationLevel = "license"
	LevelBillingInfo VerificationLevel = "billing_info"
)

var levelOrder = []VerificationLevel{
	LevelNone,
	LevelEmail,
	LevelPhone,
	LevelSelfie,
	LevelLicense,
	LevelBillingInfo,
}

// Rank returns the position of l in the pipeline. Unknown names rank as LevelNone.
func (l VerificationLevel) Rank() int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return 0
}

// AtLeast reports whether l is at or past required.
func (l VerificationLevel) AtLeast(required VerificationLevel) bool {
	return l.Rank() >= required.Rank()
}

// Next returns the step that follows l, or l itself when the pipeline is complete.
func (l VerificationLevel) Next() VerificationLevel {
	r := l.Rank()
	if r+1 >= len(levelOrder) {
		return l
	}
	return levelOrder[r+1]
}

// MaxLevel returns the higher of a and b.
func MaxLevel(a, b VerificationLevel) VerificationLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// VerificationStatus labels the state of a verification attempt and the
// user's overall KYC progress.
type VerificationStatus string

const (
	StatusInitiated  VerificationStatus = "initiated"
	StatusInProgress VerificationStatus = "in-progress"
	StatusInReview   VerificationStatus = "in-review"
	StatusExpired    VerificationStatus = "expired"
	StatusFailed     VerificationStatus = "failed"
	StatusCompleted  VerificationStatus = "completed"
)
