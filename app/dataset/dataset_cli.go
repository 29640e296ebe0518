package datasetcli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	appbase "github.com/datatools/dataforge/app/base"
	"github.com/datatools/dataforge/app/base/util"
	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/chain"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/logging"
	"github.com/datatools/dataforge/pkg/metastore"
	"github.com/datatools/dataforge/pkg/query"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, datasetCmdDef)
}

var datasetCmdDef = &cli.Command{
	Name:  "dataset",
	Usage: "Subcommands that operate on datasets",
	Subcommands: []*cli.Command{
		{
			Name:  "ls",
			Usage: "List datasets registered in the catalog",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "versions",
					Usage: "List every version instead of one row per dataset",
				},
				&cli.BoolFlag{
					Name:  "remote",
					Usage: "List datasets from the remote registry instead of the local catalog",
				},
				&cli.BoolFlag{
					Name:  "listing",
					Usage: "Include storage-listing datasets",
				},
				&cli.StringSliceFlag{
					Name:    "attr",
					Aliases: []string{"a"},
					Usage:   "Keep only datasets matching an attribute predicate (name, name=value, or name=*)",
				},
			},
			Action: util.ChainCmdMiddleware(cmdDatasetLs,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "show",
			Usage:     "Show a dataset record, its versions, and optionally its schema",
			ArgsUsage: "NAME[@VERSION]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "Select a version (exact, or a bare integer for the latest of that major)",
				},
				&cli.BoolFlag{
					Name:  "schema",
					Usage: "Print the derived signal schema",
				},
			},
			Action: util.ChainCmdMiddleware(cmdDatasetShow,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "rm",
			Usage:     "Remove a dataset version, or the whole dataset with --force",
			ArgsUsage: "NAME[@VERSION]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "Version to remove; defaults to the latest",
				},
				&cli.BoolFlag{
					Name:    "force",
					Aliases: []string{"f"},
					Usage:   "Remove the whole dataset, every version included",
				},
				&cli.BoolFlag{
					Name:  "remote",
					Usage: "Remove from the remote registry instead of the local catalog",
				},
			},
			Action: util.ChainCmdMiddleware(cmdDatasetRm,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "edit",
			Usage:     "Edit a dataset record's name, description, or attributes",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "new-name",
					Usage: "Rename the dataset within its project",
				},
				&cli.StringFlag{
					Name:  "description",
					Usage: "Set the dataset description",
				},
				&cli.StringSliceFlag{
					Name:    "attr",
					Aliases: []string{"a"},
					Usage:   "Set an attribute (name or name=value); repeatable",
				},
			},
			Action: util.ChainCmdMiddleware(cmdDatasetEdit,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "pull",
			Usage:     "Import a dataset record and its versions from the remote registry",
			ArgsUsage: "NAME[@VERSION]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "local-name",
					Usage: "Store the imported dataset under a different local name",
				},
				&cli.StringFlag{
					Name:  "local-version",
					Usage: "Store a single imported version under a different version name",
				},
			},
			Action: util.ChainCmdMiddleware(cmdDatasetPull,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

func newCliSession(c *cli.Context) (*query.Session, error) {
	wss, err := util.OpenWorkspaceSet()
	if err != nil {
		return nil, err
	}
	return query.NewSession(c.Context, query.WithWorkspace(wss.Local()))
}

func cmdDatasetLs(c *cli.Context) error {
	ctx := c.Context
	sess, err := newCliSession(c)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	ch, err := chain.Datasets(ctx, chain.ListOptions{
		Session:        sess,
		Remote:         c.Bool("remote"),
		IncludeListing: c.Bool("listing"),
		Attrs:          c.StringSlice("attr"),
	})
	if err != nil {
		return err
	}
	records, err := ch.Records()
	if err != nil {
		return err
	}

	infos := make([]chain.DatasetInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, rec["dataset"].(chain.DatasetInfo))
	}
	if !c.Bool("versions") {
		infos = latestOnly(infos)
	}

	if c.Bool("json") {
		return json.NewEncoder(c.App.Writer).Encode(infos)
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, info := range infos {
		fullName := fmt.Sprintf("%s.%s.%s", info.Namespace, info.Project, info.Name)
		fmt.Fprintf(w, "%s\t%s\t%d objects\t%d bytes\t%s\n",
			fullName, info.Version, info.NumObjects, info.Size, strings.Join(info.Attrs, ","))
	}
	return w.Flush()
}

// latestOnly collapses per-version rows down to one row per dataset,
// keeping the row with the highest version.
func latestOnly(infos []chain.DatasetInfo) []chain.DatasetInfo {
	byName := map[string]chain.DatasetInfo{}
	order := []string{}
	for _, info := range infos {
		key := fmt.Sprintf("%s.%s.%s", info.Namespace, info.Project, info.Name)
		prev, seen := byName[key]
		if !seen {
			order = append(order, key)
			byName[key] = info
			continue
		}
		if dfapi.CompareVersions(info.Version, prev.Version) > 0 {
			byName[key] = info
		}
	}
	sort.Strings(order)
	result := make([]chain.DatasetInfo, 0, len(order))
	for _, key := range order {
		result = append(result, byName[key])
	}
	return result
}

func cmdDatasetShow(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("invalid input. usage: dataforge dataset show NAME[@VERSION]")
	}
	ctx := c.Context
	name := c.Args().First()
	if v := c.String("version"); v != "" {
		name = name + "@" + v
	}

	sess, err := newCliSession(c)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	q, err := query.NewDatasetQuery(ctx, sess, name)
	if err != nil {
		return err
	}
	ds := q.Dataset()
	ref := q.Ref()

	if c.Bool("json") {
		out := struct {
			Name        string        `json:"name"`
			Version     string        `json:"version"`
			Description *string       `json:"description,omitempty"`
			Attrs       []string      `json:"attrs,omitempty"`
			Versions    []string      `json:"versions"`
			Schema      [][2]string   `json:"schema,omitempty"`
		}{
			Name:        ref.FullName(),
			Version:     string(ref.Version),
			Description: ds.Description,
			Attrs:       ds.Attrs,
		}
		for _, v := range ds.Versions.Keys {
			out.Versions = append(out.Versions, string(v))
		}
		if c.Bool("schema") {
			schema := q.SignalSchema()
			for _, field := range schema.Fields() {
				typeName, _ := schema.FieldType(field)
				out.Schema = append(out.Schema, [2]string{field, typeName})
			}
		}
		return json.NewEncoder(c.App.Writer).Encode(out)
	}

	fmt.Fprintf(c.App.Writer, "%s @ %s\n", ref.FullName(), ref.Version)
	if ds.Description != nil {
		fmt.Fprintf(c.App.Writer, "  %s\n", *ds.Description)
	}
	if len(ds.Attrs) > 0 {
		fmt.Fprintf(c.App.Writer, "  attrs: %s\n", strings.Join(ds.Attrs, ", "))
	}
	fmt.Fprintf(c.App.Writer, "  versions:\n")
	for _, v := range ds.Versions.Keys {
		marker := " "
		if v == ref.Version {
			marker = "*"
		}
		fmt.Fprintf(c.App.Writer, "   %s %s\n", marker, v)
	}
	if c.Bool("schema") {
		fmt.Fprintf(c.App.Writer, "  schema:\n")
		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		schema := q.SignalSchema()
		for _, field := range schema.Fields() {
			typeName, _ := schema.FieldType(field)
			fmt.Fprintf(w, "    %s\t%s\n", field, typeName)
		}
		w.Flush()
	}
	return nil
}

func cmdDatasetRm(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("invalid input. usage: dataforge dataset rm NAME[@VERSION]")
	}
	ctx := c.Context
	log := logging.Ctx(ctx)
	name := c.Args().First()

	sess, err := newCliSession(c)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	err = chain.DeleteDataset(ctx, name, chain.DeleteOptions{
		Session: sess,
		Version: dfapi.VersionName(c.String("version")),
		Force:   c.Bool("force"),
		Remote:  c.Bool("remote"),
	})
	if err != nil {
		return err
	}
	log.Info("", "removed %s", name)
	return nil
}

func cmdDatasetEdit(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("invalid input. usage: dataforge dataset edit NAME")
	}
	ctx := c.Context
	log := logging.Ctx(ctx)

	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}
	ref, err := dab.ParseDatasetRef(c.Args().First(), cat.DefaultNamespaceName(), cat.DefaultProjectName())
	if err != nil {
		return err
	}
	ref.Version = ""
	store := cat.Metastore()
	ds, err := store.GetDataset(ref)
	if err != nil {
		if serum.Code(err) == dfapi.CodeProjectNotFound {
			return dfapi.ErrorDatasetNotFoundCause(ref.FullName(), err)
		}
		return err
	}

	if desc := c.String("description"); desc != "" {
		ds.Description = &desc
	}
	for _, attr := range c.StringSlice("attr") {
		ds.Attrs = setAttr(ds.Attrs, attr)
	}

	newName := c.String("new-name")
	if newName == "" {
		if err := store.SaveDataset(ref, ds); err != nil {
			return err
		}
		log.Info("", "updated %s", ref.FullName())
		return nil
	}

	// A rename re-homes the record and all version files, then drops the old tree.
	if !metastore.ValidName(newName) {
		return dfapi.ErrorNameInvalid(newName, "dataset names are single lowercase segments")
	}
	newRef := ref
	newRef.Name = dfapi.DatasetName(newName)
	ds.Name = newRef.Name
	for _, version := range ds.Versions.Keys {
		dv, err := store.GetVersion(ref, version)
		if err != nil {
			return err
		}
		vRef := newRef
		vRef.Version = version
		if err := store.AddVersion(vRef, dv, true); err != nil {
			return err
		}
	}
	if err := store.SaveDataset(newRef, ds); err != nil {
		return err
	}
	if err := store.RemoveDataset(ref, "", true); err != nil {
		return err
	}
	log.Info("", "renamed %s to %s", ref.FullName(), newRef.FullName())
	return nil
}

// setAttr replaces an attribute entry sharing the new entry's name, or appends.
func setAttr(attrs []string, entry string) []string {
	name := entry
	if i := strings.IndexByte(entry, '='); i >= 0 {
		name = entry[:i]
	}
	for i, attr := range attrs {
		attrName := attr
		if j := strings.IndexByte(attr, '='); j >= 0 {
			attrName = attr[:j]
		}
		if attrName == name {
			attrs[i] = entry
			return attrs
		}
	}
	return append(attrs, entry)
}

func cmdDatasetPull(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("invalid input. usage: dataforge dataset pull NAME[@VERSION]")
	}
	ctx := c.Context
	log := logging.Ctx(ctx)

	cat, err := util.OpenCatalog()
	if err != nil {
		return err
	}
	remoteRef, err := dab.ParseDatasetRef(c.Args().First(), cat.DefaultNamespaceName(), cat.DefaultProjectName())
	if err != nil {
		return err
	}

	localRef := remoteRef
	if localName := c.String("local-name"); localName != "" {
		localRef, err = dab.ParseDatasetRef(localName, cat.DefaultNamespaceName(), cat.DefaultProjectName())
		if err != nil {
			return err
		}
	}
	localVersion := dfapi.VersionName(c.String("local-version"))
	if localVersion != "" && remoteRef.Version == "" {
		return serum.Error(dfapi.CodeVersionInvalid,
			serum.WithMessageLiteral("--local-version requires pulling a single version (NAME@VERSION)"),
		)
	}

	if _, err := cat.PullDataset(ctx, remoteRef, localRef); err != nil {
		return err
	}

	// Re-home a single imported version under the requested local version name.
	if localVersion != "" && localVersion != remoteRef.Version {
		store := cat.Metastore()
		getRef := localRef
		getRef.Version = ""
		dv, err := store.GetVersion(getRef, remoteRef.Version)
		if err != nil {
			return err
		}
		dv.Version = localVersion
		vRef := localRef
		vRef.Version = localVersion
		if err := store.AddVersion(vRef, dv, true); err != nil {
			return err
		}
		if err := store.RemoveDataset(getRef, remoteRef.Version, false); err != nil {
			return err
		}
	}

	log.Info("", "pulled %s into %s", remoteRef.FullName(), localRef.FullName())
	return nil
}
