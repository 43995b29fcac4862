// Package entities contains domain entities used across the application.
package entities

// Item is one entry of the fixed 100-item recall table. Every number from
// 1 to 100 is bound to a concrete word, an emoji, and the category the
// number falls into.
type Item struct {
	Number     int    `json:"number"`     // number of the item (from 1 to 100)
	Word       string `json:"word"`       // word associated with the number
	Emoji      string `json:"emoji"`      // emoji illustrating the word
	CategoryID string `json:"categoryId"` // id of the category the number belongs to
	Hint       string `json:"hint"`       // optional built-in mnemonic hint
}

// Category groups ten consecutive numbers of the recall table under a
// common theme. The ten categories partition 1..100 without gaps.
type Category struct {
	ID          string `json:"id"`          // unique category id ("places", "people", ...)
	Name        string `json:"name"`        // display name
	NameEn      string `json:"nameEn"`      // English display name
	StartNum    int    `json:"startNum"`    // first number of the range
	EndNum      int    `json:"endNum"`      // last number of the range (startNum+9)
	Color       string `json:"color"`       // accent color for the UI
	Description string `json:"description"` // short category description
}

// Contains reports whether the number falls into the category's range.
func (c Category) Contains(number int) bool {
	return number >= c.StartNum && number <= c.EndNum
}
