package core

// DBOrdering is one sort key of a store query; stores fall back to id ascending.
type DBOrdering struct {
	Field     string
	Ascending bool
}
