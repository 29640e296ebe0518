package dfapi

import (
	"fmt"
)

// DatasetRef is a fully resolved dataset identifier.
// Version may be empty, meaning "unpinned".
type DatasetRef struct {
	Namespace NamespaceName
	Project   ProjectName
	Name      DatasetName
	Version   VersionName
}

// FullName returns the dotted three-segment form, without any version.
func (r DatasetRef) FullName() string {
	return fmt.Sprintf("%s.%s.%s", r.Namespace, r.Project, r.Name)
}

func (r DatasetRef) String() string {
	if r.Version == "" {
		return r.FullName()
	}
	return fmt.Sprintf("%s@%s", r.FullName(), r.Version)
}
