package model

// Project is a top-level conversion unit mapped to a sub-tree of the
// target repository (spec.md §3). Most conversions have exactly one
// project, but the CVS root may contain several independent modules.
type Project struct {
	ID       ProjectID
	RootPath PathID

	// BranchTemplate and TagTemplate use "%s" for the branch or tag
	// name, matching the %s idiom reposurgeon's VCS table uses for its
	// own command templates (surgeon/vcs.go). TrunkTemplate has no "%s".
	TrunkTemplate  string
	BranchTemplate string
	TagTemplate    string
}

// DefaultProject returns the conventional cvs2svn-style single-project
// layout: trunk/, branches/<name>/, tags/<name>/.
func DefaultProject(id ProjectID, root PathID) *Project {
	return &Project{
		ID:             id,
		RootPath:       root,
		TrunkTemplate:  "trunk",
		BranchTemplate: "branches/%s",
		TagTemplate:    "tags/%s",
	}
}
