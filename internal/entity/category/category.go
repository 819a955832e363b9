package category

import "strings"

// Owner tells who a category belongs to. A category is either global,
// shared read-only with every user, or owned by exactly one user.
// Global categories can never be edited or deleted.
type Owner struct {
	userID int64
	owned  bool
}

func Global() Owner {
	return Owner{}
}

func OwnedBy(userID int64) Owner {
	return Owner{userID: userID, owned: true}
}

func (o Owner) IsGlobal() bool {
	return !o.owned
}

// UserID returns the owning user and false for global categories.
func (o Owner) UserID() (int64, bool) {
	return o.userID, o.owned
}

// BelongsTo reports whether userID holds write authority over entities
// with this owner. Global owners belong to nobody.
func (o Owner) BelongsTo(userID int64) bool {
	return o.owned && o.userID == userID
}

// VisibleTo reports read visibility: globals are visible to everyone,
// owned categories only to their owner.
func (o Owner) VisibleTo(userID int64) bool {
	return !o.owned || o.userID == userID
}

const MaxNameLen = 100

type Record struct {
	ID    int64
	Name  string
	Owner Owner
}

// SameName compares category names the way the uniqueness rule does:
// trimmed and case-insensitive. Display casing is not significant.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
