package sandbox

import (
	"errors"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

// DefaultMountID is assigned to mount points that have no id.
const DefaultMountID = "animation-container"

// ErrMountDetached is returned for mount points outside the document.
var ErrMountDetached = errors.New("mount point is not attached to the document")

// PrepareMount clears mount and makes sure it carries an id. The id is unique
// in the document: when DefaultMountID is taken by another element a fresh
// one is generated.
func PrepareMount(mount *dom.Element) (string, error) {
	if mount == nil || !mount.Attached() {
		return "", ErrMountDetached
	}
	mount.Clear()
	if mount.ID == "" {
		doc := mount.Document()
		if other := doc.GetElementByID(DefaultMountID); other == nil {
			mount.ID = DefaultMountID
		} else {
			mount.ID = doc.NextID(DefaultMountID)
		}
	}
	return mount.ID, nil
}

// ApplyStyles copies styles onto every render surface below mount.
func ApplyStyles(mount *dom.Element, styles map[string]string) {
	for _, el := range mount.Surfaces() {
		for k, v := range styles {
			el.Style[k] = v
		}
	}
}

// MountSize returns the mount dimensions, or the fallback when either is zero.
func MountSize(mount *dom.Element, fallbackW, fallbackH int) (int, int) {
	if mount == nil || mount.ClientWidth <= 0 || mount.ClientHeight <= 0 {
		return fallbackW, fallbackH
	}
	return mount.ClientWidth, mount.ClientHeight
}
