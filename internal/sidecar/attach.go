// SPDX-License-Identifier: MPL-2.0

package sidecar

import (
	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/kind"
)

type (
	// File is a classified entry of a container listing.
	File struct {
		Name string
		Kind kind.Kind
	}

	// Set names the sidecar files bound to one owner.
	Set struct {
		Comment     string
		Description string
	}

	// Attachments is the result of binding the sidecars of one container.
	Attachments struct {
		owners  map[string]Set
		folder  Set
		orphans []File
	}
)

// Attach binds every comment and description file in files to its owner by
// stripping the sidecar suffix and looking the remainder up with isOwner.
// Sidecars without an owner are returned as orphans; they stay on disk and
// bind again once the owner appears.
func Attach(names classify.Names, files []File, isOwner func(name string) bool) *Attachments {
	a := &Attachments{owners: map[string]Set{}}
	folderDesc := folderDescriptionName(names)

	for _, f := range files {
		switch f.Kind {
		case kind.FolderComment:
			a.folder.Comment = f.Name
			continue
		case kind.Comment, kind.Description:
		default:
			continue
		}
		if f.Kind == kind.Description && f.Name == folderDesc {
			a.folder.Description = f.Name
			continue
		}

		suffix := names.CommentSuffix
		if f.Kind == kind.Description {
			suffix = names.DescriptionSuffix
		}
		owner, ok := classify.OwnerName(f.Name, suffix)
		if !ok || !isOwner(owner) {
			a.orphans = append(a.orphans, f)
			continue
		}
		set := a.owners[owner]
		if f.Kind == kind.Comment {
			set.Comment = f.Name
		} else {
			set.Description = f.Name
		}
		a.owners[owner] = set
	}
	return a
}

// For returns the sidecars bound to owner.
func (a *Attachments) For(owner string) (Set, bool) {
	s, ok := a.owners[owner]
	return s, ok
}

// Folder returns the folder-level sidecars.
func (a *Attachments) Folder() Set {
	return a.folder
}

// Orphans returns the sidecars whose owner is not present.
func (a *Attachments) Orphans() []File {
	return a.orphans
}
