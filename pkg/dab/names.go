package dab

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
)

var (
	alphaNumReFmt    = `[a-zA-Z0-9]`
	segWordReFmt     = `[-a-zA-Z0-9_]`
	nameWordReFmt    = `[-a-zA-Z0-9_\.]`
	segmentReFmt     = fmt.Sprintf(`(%s%s*)?%s`, alphaNumReFmt, segWordReFmt, alphaNumReFmt)
	datasetReFmt     = fmt.Sprintf(`(%s%s*)?%s`, alphaNumReFmt, nameWordReFmt, alphaNumReFmt)
	reSegment        = regexp.MustCompile(`^` + segmentReFmt + `$`)
	reDatasetName    = regexp.MustCompile(`^` + datasetReFmt + `$`)
	segmentMaxLength = 63 // limit segments to encourage compatibility with DNS label rules
)

// ValidateSegment checks a namespace or project name segment for invalid strings.
//
// Segments have the following rules:
//    - MUST start AND end with an ASCII alpha-numeric character.
//    - MUST contain only ASCII alpha-numeric characters plus underscores '_' and hyphens '-'.
//    - MUST be 63 characters or less.
//
// Errors:
//
//  - dataforge-error-name-invalid -- when the segment is invalid
func ValidateSegment(kind, segment string) error {
	if !reSegment.MatchString(segment) {
		return serum.Error(dfapi.CodeNameInvalid,
			serum.WithMessageTemplate("{{kind}} name {{name|q}} must both start and end with an alphanumeric character and must consist of alphanumeric characters, '-', or '_'"),
			serum.WithDetail("kind", kind),
			serum.WithDetail("name", strconv.Quote(segment)),
		)
	}
	if len(segment) > segmentMaxLength {
		return serum.Errorf(dfapi.CodeNameInvalid, "%s name may not be longer than %d characters", kind, segmentMaxLength)
	}
	return nil
}

// ValidateDatasetName checks the dataset short name for invalid strings.
// The rules are the same as for namespace and project segments,
// except interior dots are also allowed.
//
// Errors:
//
//  - dataforge-error-name-invalid -- when the dataset name is invalid
func ValidateDatasetName(name dfapi.DatasetName) error {
	if !reDatasetName.MatchString(string(name)) {
		return serum.Error(dfapi.CodeNameInvalid,
			serum.WithMessageTemplate("dataset name {{name|q}} must both start and end with an alphanumeric character and must consist of alphanumeric characters, '-', '_', or '.'"),
			serum.WithDetail("name", strconv.Quote(string(name))),
		)
	}
	if len(name) > segmentMaxLength {
		return serum.Errorf(dfapi.CodeNameInvalid, "dataset name may not be longer than %d characters", segmentMaxLength)
	}
	return nil
}

// ParseDatasetName splits a possibly-qualified dataset name into its
// namespace, project, and short name parts.
//
// A bare name yields empty namespace and project (the caller applies defaults).
// Three or more dot-separated segments yield namespace, project, and the
// remainder rejoined as the short name.  Exactly two segments is ambiguous
// and therefore rejected.
//
// Errors:
//
//  - dataforge-error-name-invalid -- when the name or any of its segments is invalid
func ParseDatasetName(full string) (namespace, project, name string, err error) {
	parts := strings.Split(full, ".")
	switch len(parts) {
	case 1:
		name = full
	case 2:
		err = serum.Error(dfapi.CodeNameInvalid,
			serum.WithMessageTemplate("dataset name {{name|q}} has two qualifier segments; use either a bare name or namespace.project.name"),
			serum.WithDetail("name", strconv.Quote(full)),
		)
		return
	default:
		namespace, project, name = parts[0], parts[1], strings.Join(parts[2:], ".")
		if err = ValidateSegment("namespace", namespace); err != nil {
			return "", "", "", err
		}
		if err = ValidateSegment("project", project); err != nil {
			return "", "", "", err
		}
	}
	if err = ValidateDatasetName(dfapi.DatasetName(name)); err != nil {
		return "", "", "", err
	}
	return
}

// SplitVersionSuffix splits a `name@version` string into its name and version
// parts.  The version part is empty when there is no '@'.
func SplitVersionSuffix(s string) (name, version string) {
	name, version, _ = strings.Cut(s, "@")
	return
}

// ParseDatasetRef parses a possibly-qualified, possibly-versioned dataset name
// string (e.g., `cats`, `prod.vision.cats`, or `prod.vision.cats@1.2.0`)
// into a DatasetRef, applying the given defaults for absent qualifiers.
//
// Errors:
//
//  - dataforge-error-name-invalid -- when the name or any of its segments is invalid
func ParseDatasetRef(s string, defaultNamespace, defaultProject string) (dfapi.DatasetRef, error) {
	nameStr, version := SplitVersionSuffix(s)
	namespace, project, name, err := ParseDatasetName(nameStr)
	if err != nil {
		return dfapi.DatasetRef{}, err
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	if project == "" {
		project = defaultProject
	}
	return dfapi.DatasetRef{
		Namespace: dfapi.NamespaceName(namespace),
		Project:   dfapi.ProjectName(project),
		Name:      dfapi.DatasetName(name),
		Version:   dfapi.VersionName(version),
	}, nil
}
