package passes

// Spec is one registered pass: its stable name, the artifacts it reads
// and writes (spec.md §4.11 "declare (name, reads[], writes[])"), and
// the function that actually runs it against a Pipeline.
type Spec struct {
	Name   string
	Reads  []string
	Writes []string
	Run    func(*Pipeline) error
}

// All is the pipeline's fixed pass order, matching spec.md §2's data
// flow: filesystem -> C5 -> {item store, symbol stats, metadata store}
// -> C6 -> {symbol decisions} -> C7 -> {filtered item store} -> C8 ->
// {changeset store} -> C9 -> {ordered changeset store} -> C10.
// C12 (the output backend) is deliberately not a registered pass here:
// spec.md §2 specifies it as an external contract consuming C10's
// commit-record stream, not a stage the pass manager schedules.
var All = []Spec{
	{
		Name:   "collect",
		Reads:  nil,
		Writes: []string{"item_store", "symbol_stats", "metadata_store"},
		Run:    runCollect,
	},
	{
		Name:   "symbols",
		Reads:  []string{"symbol_stats"},
		Writes: []string{"symbol_decisions"},
		Run:    runSymbols,
	},
	{
		Name:   "filter",
		Reads:  []string{"item_store", "metadata_store", "symbol_decisions"},
		Writes: []string{"filtered_item_store"},
		Run:    runFilter,
	},
	{
		Name:   "changeset",
		Reads:  []string{"filtered_item_store"},
		Writes: []string{"changeset_store"},
		Run:    runChangeset,
	},
	{
		Name:   "graph",
		Reads:  []string{"changeset_store", "filtered_item_store"},
		Writes: []string{"ordered_changeset_store"},
		Run:    runGraph,
	},
	{
		Name:   "commit",
		Reads:  []string{"ordered_changeset_store", "filtered_item_store"},
		Writes: []string{"commit_records"},
		Run:    runCommit,
	},
}

// ByName resolves a pass name to its index in All, or -1 if unknown.
func ByName(name string) int {
	for i, spec := range All {
		if spec.Name == name {
			return i
		}
	}
	return -1
}
