package domain

// FieldValues is the typed view of a skill's configuration.
type FieldValues struct {
	// Scalars maps scalar field names to their values.
	Scalars map[string]string

	// Lists maps list field names to their items.
	Lists map[string]*ListValue
}

// NewFieldValues returns an empty, ready to use FieldValues.
func NewFieldValues() FieldValues {
	return FieldValues{
		Scalars: make(map[string]string),
		Lists:   make(map[string]*ListValue),
	}
}

// ListValue holds the items of a list field and the optional default item.
type ListValue struct {
	Items   []ListItem
	Default string
}

// Item returns the item with the given slug.
func (l *ListValue) Item(slug string) (*ListItem, bool) {
	if l == nil {
		return nil, false
	}
	slug = NormalizeSlug(slug)
	for i := range l.Items {
		if NormalizeSlug(l.Items[i].Slug) == slug {
			return &l.Items[i], true
		}
	}
	return nil, false
}

// ListItem is one slug-keyed record of a list field. Values holds item
// attributes by name and OAuth tokens by token key.
type ListItem struct {
	Slug   string
	Values map[string]string
}
