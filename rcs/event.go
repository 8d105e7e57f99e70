package rcs

// Handler receives the callback-driven event stream C1 produces, in
// exactly the order spec.md §4.1 fixes:
//
//	SetHeadRevision
//	SetPrincipalBranch?
//	DefineTag*
//	SetComment?
//	SetExpansion?
//	AdminCompleted
//	(DefineRevision)*            -- one per revision, in admin order
//	(SetRevisionInfo)*           -- one per revision, after "desc"
//	ParseCompleted
//
// Implementations are per-file collectors; Parser.Parse drives exactly
// one Handler per call and never retains it afterward.
type Handler interface {
	SetHeadRevision(number string)
	SetPrincipalBranch(number string)
	DefineTag(name string, number string)
	SetComment(text string)
	SetExpansion(mode string)
	AdminCompleted()

	DefineRevision(number string, timestamp int64, author string, state string, branches []string, next string)

	SetRevisionInfo(number string, log string, text []byte)

	ParseCompleted()
}

// NullHandler implements Handler with no-ops; embed it to implement
// only the callbacks a particular collector cares about.
type NullHandler struct{}

func (NullHandler) SetHeadRevision(string)                                        {}
func (NullHandler) SetPrincipalBranch(string)                                     {}
func (NullHandler) DefineTag(string, string)                                      {}
func (NullHandler) SetComment(string)                                             {}
func (NullHandler) SetExpansion(string)                                           {}
func (NullHandler) AdminCompleted()                                               {}
func (NullHandler) DefineRevision(string, int64, string, string, []string, string) {}
func (NullHandler) SetRevisionInfo(string, string, []byte)                        {}
func (NullHandler) ParseCompleted()                                               {}
