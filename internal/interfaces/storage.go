package interfaces

import "github.com/bobmcallan/fundval/internal/models"

// FundRepository maps fund names to codes. Implementations must be safe for
// concurrent use; entries are only ever added.
type FundRepository interface {
	// CodeByName returns the code for an exact name match
	CodeByName(name string) (string, bool)

	// NameByCode returns the first name registered for code
	NameByCode(code string) (string, bool)

	// Put registers name -> code; an existing name is left unchanged
	Put(name, code string)

	// ByNameLength returns all entries, longest name first
	ByNameLength() []models.FundName
}
