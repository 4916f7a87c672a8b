package template

// Common error messages
const (
	ErrUnexpectedToken  = "unexpected %s %q, expected %s"
	ErrInvalidStatement = "invalid statement %q"
	ErrMalformedFor     = "a for header has to be of the form {%% for variable in collection %%}, %q given"
	ErrMalformedBlock   = "a block header has to be of the form {%% block name %%}, %q given"
	ErrTemplateName     = "%s expects a single string literal naming a template, %q given"
	ErrExtendsNotFirst  = "extends must be the first statement of a template"
)

// Context error messages
const (
	msgSelfExtends     = "the template '%s' cannot extend itself"
	msgCycle           = "template cycle detected: %s"
	msgParentOutside   = "parent can only be used inside a block"
	msgParentNoParent  = "the block '%s' has no parent block"
	msgNotFound        = "template %q not found"
	expectedStatement  = "Text, Output, If, For, Block, Include or Parent"
	expectedBranchStop = "Elif, Else or End"
)
