/*
	Package dab -- short for Data Access Broker -- contains functions that help save and load data,
	mostly to a local filesystem (but sometimes to a checkout of a git-backed registry, as well).

	Most dab functions return objects from the dfapi package.

	This package is also the home of the dataset naming grammar:
	how fully qualified names split into namespace, project, and short name,
	and which strings are acceptable for each of those segments.
	The metastore and the remote registries both lay files out using
	the magic filenames declared here.

	Most of these functions return the "latest" version of their relevant API type.
	At the moment, that's not saying much, because we haven't grown in such a way
	that we support major varations of API object reversions -- but in the future,
	this means these functions may do "migrational" transforms to the data on the fly.
*/
package dab
