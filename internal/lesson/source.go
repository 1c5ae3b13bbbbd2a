package lesson

// Source supplies the vocabulary behind lesson groups. The progress refresh
// walks it to find out which words belong to each level.
type Source interface {
	// Words returns the normalized, deduplicated word list for one level
	Words(groupID string, level int) ([]string, error)

	// Levels returns the levels present in a group, ascending
	Levels(groupID string) ([]int, error)

	// Language returns the language the group's material is written in
	Language(groupID string) (string, error)
}
