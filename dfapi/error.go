package dfapi

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/serum-errors/go-serum"
)

const (
	CodeDatasetNotFound        = "dataforge-error-dataset-not-found"
	CodeDatasetVersionNotFound = "dataforge-error-dataset-version-not-found"
	CodeProjectNotFound        = "dataforge-error-project-not-found"
	CodeNameInvalid            = "dataforge-error-name-invalid"
	CodeVersionInvalid         = "dataforge-error-version-invalid"
	CodeSettingsInvalid        = "dataforge-error-settings-invalid"
	CodeDeltaInvalid           = "dataforge-error-delta-invalid"
	CodeAlreadyExists          = "dataforge-error-already-exists"
	CodeIo                     = "dataforge-error-io"
	CodeSerialization          = "dataforge-error-serialization"
	CodeCatalogParse           = "dataforge-error-catalog-parse"
	CodeCatalogInvalid         = "dataforge-error-catalog-invalid"
	CodeWorkspace              = "dataforge-error-workspace"
	CodeSearchingFilesystem    = "dataforge-error-searching-filesystem"
	CodeRegistry               = "dataforge-error-registry"
	CodeRegistryUnsupported    = "dataforge-error-registry-unsupported"
	CodeInitialization         = "dataforge-error-initialization"
	CodeInternal               = "dataforge-error-internal"
	CodeGit                    = "dataforge-error-git"
	CodeUnknown                = "dataforge-error-unknown"
)

// TerminalError emits an error on stdout as json, and halts immediately.
// In most cases, you should not use this method, and there will be a better place to send errors
// that will be more guaranteed to fit any protocols and scripts better;
// however, this is sometimes used in init methods (where we know no other protocol yet).
func TerminalError(err serum.ErrorInterface, exitCode int) {
	json.NewEncoder(os.Stdout).Encode(struct {
		Error serum.ErrorInterface `json:"error"`
	}{err})
	os.Exit(exitCode)
}

// ErrorDatasetNotFound is returned when a dataset record cannot be found,
// locally or in any consulted registry.
//
// Errors:
//
//    - dataforge-error-dataset-not-found --
func ErrorDatasetNotFound(name string) error {
	return serum.Error(CodeDatasetNotFound,
		serum.WithMessageTemplate("dataset {{name|q}} not found"),
		serum.WithDetail("name", name),
	)
}

// ErrorDatasetNotFoundCause carries the lookup failure that was decided to
// surface as a dataset miss.  The message is composed from the cause, so the
// project context is not silently dropped.
//
// Errors:
//
//    - dataforge-error-dataset-not-found --
func ErrorDatasetNotFoundCause(name string, cause error) error {
	result := serum.Errorf(CodeDatasetNotFound,
		"dataset %q not found: %w", name, cause)
	addDetails(result, [][2]string{
		{"name", name},
	})
	return result
}

// ErrorDatasetVersionNotFound is returned when a dataset exists but the
// requested version does not.
//
// Errors:
//
//    - dataforge-error-dataset-version-not-found --
func ErrorDatasetVersionNotFound(name string, version string) error {
	return serum.Error(CodeDatasetVersionNotFound,
		serum.WithMessageTemplate("dataset {{name|q}} has no version {{version|q}}"),
		serum.WithDetail("name", name),
		serum.WithDetail("version", version),
	)
}

// ErrorDatasetMajorVersionNotFound is returned when a major version selector
// matches none of a dataset's versions.
//
// Errors:
//
//    - dataforge-error-dataset-version-not-found --
func ErrorDatasetMajorVersionNotFound(name string, major int) error {
	return serum.Error(CodeDatasetVersionNotFound,
		serum.WithMessageTemplate("dataset {{name|q}} has no version with major {{major}}"),
		serum.WithDetail("name", name),
		serum.WithDetail("major", strconv.Itoa(major)),
	)
}

// ErrorProjectNotFound is returned when a project record cannot be found.
//
// Errors:
//
//    - dataforge-error-project-not-found --
func ErrorProjectNotFound(namespace string, project string) error {
	return serum.Error(CodeProjectNotFound,
		serum.WithMessageTemplate("project {{project|q}} not found in namespace {{namespace|q}}"),
		serum.WithDetail("namespace", namespace),
		serum.WithDetail("project", project),
	)
}

// ErrorNameInvalid is returned when a dataset name cannot be parsed.
//
// Errors:
//
//    - dataforge-error-name-invalid --
func ErrorNameInvalid(name string, reason string) error {
	return serum.Error(CodeNameInvalid,
		serum.WithMessageTemplate("dataset name {{name|q}} is invalid: {{reason}}"),
		serum.WithDetail("name", name),
		serum.WithDetail("reason", reason),
	)
}

// ErrorVersionInvalid is returned when a version string is neither a valid
// semantic version nor a major version selector.
//
// Errors:
//
//    - dataforge-error-version-invalid --
func ErrorVersionInvalid(version string, reason string) error {
	return serum.Error(CodeVersionInvalid,
		serum.WithMessageTemplate("version {{version|q}} is invalid: {{reason}}"),
		serum.WithDetail("version", version),
		serum.WithDetail("reason", reason),
	)
}

// ErrorSettingsInvalid is returned when chain settings fail validation.
//
// Errors:
//
//    - dataforge-error-settings-invalid --
func ErrorSettingsInvalid(field string, reason string) error {
	return serum.Error(CodeSettingsInvalid,
		serum.WithMessageTemplate("invalid setting {{field|q}}: {{reason}}"),
		serum.WithDetail("field", field),
		serum.WithDetail("reason", reason),
	)
}

// ErrorDeltaInvalid is returned when a delta plan fails validation.
//
// Errors:
//
//    - dataforge-error-delta-invalid --
func ErrorDeltaInvalid(reason string) error {
	return serum.Error(CodeDeltaInvalid,
		serum.WithMessageTemplate("invalid delta plan: {{reason}}"),
		serum.WithDetail("reason", reason),
	)
}

// ErrorAlreadyExists is used when a record or file already exists.
//
// Errors:
//
//    - dataforge-error-already-exists --
func ErrorAlreadyExists(what string, path string) error {
	return serum.Error(CodeAlreadyExists,
		serum.WithMessageTemplate("{{what}} already exists at path: {{path|q}}"),
		serum.WithDetail("what", what),
		serum.WithDetail("path", path),
	)
}

// ErrorIo wraps generic I/O errors from the Go stdlib
//
// Errors:
//
//    - dataforge-error-io --
func ErrorIo(context string, path string, cause error) error {
	result := serum.Errorf(CodeIo,
		"io error: %s: %w", context, cause)
	addDetails(result, [][2]string{{"context", context}, {"path", path}})
	return result
}

// ErrorSerialization is returned when a serialization or deserialization error occurs
//
// Errors:
//
//    - dataforge-error-serialization --
func ErrorSerialization(context string, cause error) error {
	result := serum.Errorf(CodeSerialization,
		"serialization error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorCatalogParse is returned when parsing of a metastore file fails
//
// Errors:
//
//    - dataforge-error-catalog-parse --
func ErrorCatalogParse(path string, cause error) error {
	result := serum.Errorf(CodeCatalogParse,
		"parsing of metastore file %q failed: %w", path, cause)
	addDetails(result, [][2]string{
		{"path", path},
	})
	return result
}

// ErrorCatalogInvalid is returned when a metastore file contains invalid data
//
// Errors:
//
//    - dataforge-error-catalog-invalid --
func ErrorCatalogInvalid(path string, reason string) error {
	return serum.Error(CodeCatalogInvalid,
		serum.WithMessageTemplate("invalid metastore file {{path|q}}: {{reason}}"),
		serum.WithDetail("path", path),
		serum.WithDetail("reason", reason),
	)
}

// ErrorWorkspace is returned when an error occurs when handling a workspace
//
// Errors:
//
//    - dataforge-error-workspace --
func ErrorWorkspace(wsPath string, cause error) error {
	result := serum.Errorf(CodeWorkspace,
		"error handling workspace at %q: %w", wsPath, cause)
	addDetails(result, [][2]string{
		{"workspacePath", wsPath},
	})
	return result
}

// ErrorSearchingFilesystem is returned when an error occurs during search
//
// Errors:
//
//    - dataforge-error-searching-filesystem --
func ErrorSearchingFilesystem(searchingFor string, cause error) error {
	result := serum.Errorf(CodeSearchingFilesystem,
		"error while searching filesystem for %s: %w", searchingFor, cause)
	addDetails(result, [][2]string{
		{"searchingFor", searchingFor},
		// the cause is presumed to have any path(s) relevant.
	})
	return result
}

// ErrorRegistry is returned when a remote registry operation fails
//
// Errors:
//
//    - dataforge-error-registry --
func ErrorRegistry(context string, cause error) error {
	result := serum.Errorf(CodeRegistry,
		"registry error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorRegistryUnsupported is returned when a registry implementation cannot
// perform the requested operation.
//
// Errors:
//
//    - dataforge-error-registry-unsupported --
func ErrorRegistryUnsupported(kind string, operation string) error {
	return serum.Error(CodeRegistryUnsupported,
		serum.WithMessageTemplate("registry kind {{kind|q}} does not support {{operation}}"),
		serum.WithDetail("kind", kind),
		serum.WithDetail("operation", operation),
	)
}

// ErrorInitialization is returned when setting up process or workspace state fails.
//
// Errors:
//
//    - dataforge-error-initialization --
func ErrorInitialization(context string, cause error) error {
	result := serum.Errorf(CodeInitialization,
		"initialization failed: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorGit is returned when a go-git error occurs
//
// Errors:
//
//    - dataforge-error-git --
func ErrorGit(context string, cause error) error {
	result := serum.Errorf(CodeGit, "git error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorInternal is for miscellaneous errors that should be handled internally.
// In most cases, prefer to use more specific errors.
// Can be used when an end user is not expected to have viable intervention strategies.
//
// Errors:
//
// - dataforge-error-internal --
func ErrorInternal(msgTmpl string, cause error) error {
	return serum.Errorf(CodeInternal, "%s: %w", msgTmpl, cause)
}

// ErrorUnknown is returned when an unknown error occurs
//
// Errors:
//
// - dataforge-error-unknown --
func ErrorUnknown(msgTmpl string, cause error) error {
	return serum.Errorf(CodeUnknown, "%s: %w", msgTmpl, cause)
}

// addDetails is a helper method to get around the fact that doing a type coercion within
// an expoerted function is not currently allowed by serum.
// We won't need this if serum supports an equivalent to %w in message templates OR
// supports adding details when using serum.Errorf
func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
