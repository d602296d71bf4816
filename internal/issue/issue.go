// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a guidance page.
type Id int

const (
	ProjectNotFoundId Id = iota + 1
	ConfigLoadFailedId
	NodeNotFoundId
	LinkTargetMissingId
	ReadOnlyIncludeId
	NameExistsId
	InvalidNameId
	InvalidIndexId
	InvalidMoveId
	BrokenContainerId
	PhysicalIOFailedId
	SchemaLoadFailedId
)

type MarkdownMsg string

type HttpLink string

// Issue is a markdown guidance page shown when an operation fails.
type Issue struct {
	id    Id          // ID used to lookup the issue
	mdMsg MarkdownMsg // Markdown text that will be rendered
	links []HttpLink  // external references, may be empty
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Links() []HttpLink {
	return slices.Clone(i.links)
}

// Markdown returns the page with its links appended.
func (i *Issue) Markdown() string {
	if len(i.links) == 0 {
		return string(i.mdMsg)
	}
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	sb.WriteString("\n\n## See also\n")
	for _, link := range i.links {
		sb.WriteString("- <" + string(link) + ">\n")
	}
	return sb.String()
}

// Render renders the page for a glamour style ("dark", "light", "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# No document project here!

reqdoc opens the directory given with --project (default: the current
directory). A project directory holds an order record listing its top level
documents.

## Things you can try:
- Create a project in the current directory:
~~~
$ reqdoc init
~~~
- Or point reqdoc at an existing one:
~~~
$ reqdoc --project ./specs tree
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded!

reqdoc merges the user file (config.cue in your config directory) with the
project file (.reqdoc.cue in the project root). Both are validated against a
CUE schema.

## Things you can try:
- Print the effective configuration as valid CUE and compare:
~~~
$ reqdoc config show
~~~
- Suffixes such as comment_suffix must start with a dot
- Marker names must be single file names and must not repeat`,
		links: []HttpLink{"https://cuelang.org/docs/"},
	}

	nodeNotFoundIssue = &Issue{
		id: NodeNotFoundId,
		mdMsg: `
# No such document!

Paths are slash separated document names relative to the project root,
for example ` + "`chapter-1/loads.tbl`" + `.

## Things you can try:
- List the project to see the names:
~~~
$ reqdoc tree
~~~`,
	}

	linkTargetMissingIssue = &Issue{
		id: LinkTargetMissingId,
		mdMsg: `
# Include target does not exist!

An include overlay must point at an existing directory when it is created.
A target that disappears later leaves the overlay broken but keeps its slot.

## Things you can try:
- Check the path; relative targets are resolved against the containing folder
- Create the shared folder first, then include it`,
	}

	readOnlyIncludeIssue = &Issue{
		id: ReadOnlyIncludeId,
		mdMsg: `
# This part of the project is read-only!

The element lives inside an include overlay created as read-only. Documents
inside it can be read and numbered but not created, moved, renamed or deleted.

## Things you can try:
- Edit the shared folder directly
- Re-link the overlay without the read-only flag`,
	}

	nameExistsIssue = &Issue{
		id: NameExistsId,
		mdMsg: `
# The name is already taken!

Every element of a folder needs a distinct name, including hidden
markers and sidecar files.

## Things you can try:
- Pick another name
- Rename the existing element first:
~~~
$ reqdoc rename chapter-1/old.tbl new.tbl
~~~`,
	}

	invalidNameIssue = &Issue{
		id: InvalidNameId,
		mdMsg: `
# The name cannot be used!

Names are single path segments. They must not start with a dot (dot names
are reserved for markers), must not end in a sidecar suffix, and folders
must not use the reserved singleton folder names.`,
	}

	invalidIndexIssue = &Issue{
		id: InvalidIndexId,
		mdMsg: `
# Position out of range!

Positions count the document children of the target folder from 0.
Use -1 (the default) to append at the end.`,
	}

	invalidMoveIssue = &Issue{
		id: InvalidMoveId,
		mdMsg: `
# A folder cannot be moved into itself!

The target folder is the moved folder or one of its descendants.`,
	}

	brokenContainerIssue = &Issue{
		id: BrokenContainerId,
		mdMsg: `
# The folder is broken!

A folder without an order record, or an include overlay whose target has
gone, keeps its place in the document but cannot be opened or changed.

## Things you can try:
- Restore the include target, or re-link the overlay:
~~~
$ reqdoc new include shared ../library --relink
~~~
- Remove the broken element:
~~~
$ reqdoc rm shared
~~~`,
	}

	physicalIOFailedIssue = &Issue{
		id: PhysicalIOFailedId,
		mdMsg: `
# A file operation failed!

The change was not applied: the order record and the in-memory tree are
unchanged, so the same command can simply be repeated.

## Things you can try:
- Check permissions and free space on the project's disk
- Make sure no other program holds the file open`,
	}

	schemaLoadFailedIssue = &Issue{
		id: SchemaLoadFailedId,
		mdMsg: `
# A form schema file was skipped!

Each ` + "`*.cue`" + ` file in the schema folder declares one form:

~~~cue
extension: ".req"
kind:      "requirement"
title:     "Requirement"
~~~

The other schema files are still loaded.`,
		links: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		projectNotFoundIssue.Id():   projectNotFoundIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		nodeNotFoundIssue.Id():      nodeNotFoundIssue,
		linkTargetMissingIssue.Id(): linkTargetMissingIssue,
		readOnlyIncludeIssue.Id():   readOnlyIncludeIssue,
		nameExistsIssue.Id():        nameExistsIssue,
		invalidNameIssue.Id():       invalidNameIssue,
		invalidIndexIssue.Id():      invalidIndexIssue,
		invalidMoveIssue.Id():       invalidMoveIssue,
		brokenContainerIssue.Id():   brokenContainerIssue,
		physicalIOFailedIssue.Id():  physicalIOFailedIssue,
		schemaLoadFailedIssue.Id():  schemaLoadFailedIssue,
	}
)

// Values returns every issue sorted by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
