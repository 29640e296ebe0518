package chain_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/chain"
	"github.com/datatools/dataforge/pkg/query"
)

func newTestSession(t *testing.T) *query.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := query.NewSession(ctx, query.InMemory(), query.WithDefaults("local", "default"))
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { sess.Close(ctx) })
	return sess
}

func seedDataset(t *testing.T, sess *query.Session, name string, attrs []string, versions ...string) dfapi.DatasetRef {
	t.Helper()
	ms := sess.Catalog().Metastore()
	ref := dfapi.DatasetRef{Namespace: "local", Project: "default", Name: dfapi.DatasetName(name)}
	if _, err := ms.CreateProject(ref.Namespace, ref.Project); err != nil {
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeAlreadyExists)
	}
	for _, v := range versions {
		dv := &dfapi.DatasetVersion{
			Version:    dfapi.VersionName(v),
			Uuid:       name + "-" + v,
			CreatedAt:  "2026-02-01T12:00:00Z",
			NumObjects: 10,
			Size:       1 << 20,
			Status:     dfapi.VersionStatus_Complete,
		}
		qt.Assert(t, ms.AddVersion(ref, dv, false), qt.IsNil)
	}
	if len(attrs) > 0 {
		ds, err := ms.GetDataset(ref)
		qt.Assert(t, err, qt.IsNil)
		ds.Attrs = attrs
		qt.Assert(t, ms.SaveDataset(ref, ds), qt.IsNil)
	}
	return ref
}

func TestReadDataset(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	seedDataset(t, sess, "cats", nil, "1.0.0", "1.2.0", "2.0.0")

	t.Run("major-selector", func(t *testing.T) {
		c, err := chain.ReadDataset(ctx, "cats@1", chain.ReadOptions{Session: sess, NoFallback: true})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c.Query().Ref().Version, qt.Equals, dfapi.VersionName("1.2.0"))

		// dataset-backed chains carry no in-memory rows.
		_, err = c.Records()
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeInternal)
		qt.Check(t, c.Len(), qt.Equals, -1)
	})
	t.Run("missing-dataset", func(t *testing.T) {
		_, err := chain.ReadDataset(ctx, "dogs", chain.ReadOptions{Session: sess, NoFallback: true})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
	t.Run("settings-compose", func(t *testing.T) {
		c, err := chain.ReadDataset(ctx, "cats", chain.ReadOptions{
			Session:    sess,
			NoFallback: true,
			Settings:   dfapi.Settings{Workers: 4},
		})
		qt.Assert(t, err, qt.IsNil)
		c2, err := c.WithSettings(dfapi.Settings{Parallel: 2})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c2.Settings().Workers, qt.Equals, 4)
		qt.Check(t, c2.Settings().Parallel, qt.Equals, 2)
		// the original chain is untouched.
		qt.Check(t, c.Settings().Parallel, qt.Equals, 0)

		_, err = c.WithSettings(dfapi.Settings{Workers: -1})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeSettingsInvalid)
	})
}

func TestScopeOverrides(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	ms := sess.Catalog().Metastore()
	ref := dfapi.DatasetRef{Namespace: "prod", Project: "vision", Name: "cats"}
	_, err := ms.CreateProject(ref.Namespace, ref.Project)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ms.AddVersion(ref, &dfapi.DatasetVersion{
		Version:    "1.0.0",
		Uuid:       "cats-prod-1.0.0",
		CreatedAt:  "2026-02-01T12:00:00Z",
		NumObjects: 10,
		Size:       1 << 20,
		Status:     dfapi.VersionStatus_Complete,
	}, false), qt.IsNil)

	t.Run("unqualified-name-rescoped", func(t *testing.T) {
		c, err := chain.ReadDataset(ctx, "cats", chain.ReadOptions{
			Session:    sess,
			Namespace:  "prod",
			Project:    "vision",
			NoFallback: true,
		})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c.Query().Ref().Namespace, qt.Equals, dfapi.NamespaceName("prod"))
		qt.Check(t, c.Query().Ref().Project, qt.Equals, dfapi.ProjectName("vision"))
	})
	t.Run("qualified-name-wins", func(t *testing.T) {
		c, err := chain.ReadDataset(ctx, "prod.vision.cats", chain.ReadOptions{
			Session:    sess,
			Namespace:  "elsewhere",
			Project:    "unrelated",
			NoFallback: true,
		})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c.Query().Ref().Namespace, qt.Equals, dfapi.NamespaceName("prod"))
	})
	t.Run("session-defaults-unaffected", func(t *testing.T) {
		_, err := chain.ReadDataset(ctx, "cats", chain.ReadOptions{Session: sess, NoFallback: true})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
	t.Run("delete-rescoped", func(t *testing.T) {
		err := chain.DeleteDataset(ctx, "cats", chain.DeleteOptions{
			Session:   sess,
			Namespace: "prod",
			Project:   "vision",
			Force:     true,
		})
		qt.Assert(t, err, qt.IsNil)
		_, err = ms.GetDataset(ref)
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
}

func TestDatasets(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	seedDataset(t, sess, "cats", []string{"published", "loc=europe"}, "1.0.0", "2.0.0")
	seedDataset(t, sess, "dogs", []string{"published"}, "1.0.0")
	seedDataset(t, sess, "lst-bucket", nil, "1.0.0")
	seedDataset(t, sess, "session-scratch", nil, "1.0.0")

	t.Run("defaults-hide-temp-and-listing", func(t *testing.T) {
		c, err := chain.Datasets(ctx, chain.ListOptions{Session: sess})
		qt.Assert(t, err, qt.IsNil)
		recs, err := c.Records()
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, len(recs), qt.Equals, 3) // cats x2 versions + dogs
		info := recs[0]["dataset"].(chain.DatasetInfo)
		qt.Check(t, info.Name, qt.Equals, dfapi.DatasetName("cats"))
		qt.Check(t, info.Version, qt.Equals, dfapi.VersionName("1.0.0"))
		qt.Check(t, info.IsTemp, qt.IsFalse)
	})
	t.Run("attr-wildcard", func(t *testing.T) {
		c, err := chain.Datasets(ctx, chain.ListOptions{Session: sess, Attrs: []string{"loc=*"}})
		qt.Assert(t, err, qt.IsNil)
		recs, err := c.Records()
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, len(recs), qt.Equals, 2)
		for _, rec := range recs {
			qt.Check(t, rec["dataset"].(chain.DatasetInfo).Name, qt.Equals, dfapi.DatasetName("cats"))
		}
	})
	t.Run("attr-conjunction", func(t *testing.T) {
		c, err := chain.Datasets(ctx, chain.ListOptions{Session: sess, Attrs: []string{"published", "loc=europe"}})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c.Len(), qt.Equals, 2)
	})
	t.Run("flatten", func(t *testing.T) {
		c, err := chain.Datasets(ctx, chain.ListOptions{Session: sess, Flatten: true})
		qt.Assert(t, err, qt.IsNil)
		recs, err := c.Records()
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, recs[0]["name"], qt.Equals, "cats")
		qt.Check(t, recs[0]["numObjects"], qt.Equals, int64(10))
		_, ok := c.SignalSchema().FieldType("uuid")
		qt.Check(t, ok, qt.IsTrue)
	})
	t.Run("listings", func(t *testing.T) {
		c, err := chain.Listings(ctx, chain.ListOptions{Session: sess})
		qt.Assert(t, err, qt.IsNil)
		recs, err := c.Records()
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, len(recs), qt.Equals, 1)
		qt.Check(t, recs[0]["dataset"].(chain.DatasetInfo).Name, qt.Equals, dfapi.DatasetName("lst-bucket"))
	})
}

func TestDeleteDataset(t *testing.T) {
	ctx := context.Background()

	t.Run("default-removes-latest", func(t *testing.T) {
		sess := newTestSession(t)
		ref := seedDataset(t, sess, "cats", nil, "1.0.0", "2.0.0")
		err := chain.DeleteDataset(ctx, "cats", chain.DeleteOptions{Session: sess})
		qt.Assert(t, err, qt.IsNil)
		ds, err := sess.Catalog().Metastore().GetDataset(ref)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, ds.Versions.Keys, qt.DeepEquals, []dfapi.VersionName{"1.0.0"})
	})
	t.Run("force-ignores-version", func(t *testing.T) {
		sess := newTestSession(t)
		ref := seedDataset(t, sess, "cats", nil, "1.0.0", "2.0.0")
		err := chain.DeleteDataset(ctx, "cats", chain.DeleteOptions{Session: sess, Version: "1.0.0", Force: true})
		qt.Assert(t, err, qt.IsNil)
		_, err = sess.Catalog().Metastore().GetDataset(ref)
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
	t.Run("missing-version", func(t *testing.T) {
		sess := newTestSession(t)
		seedDataset(t, sess, "cats", nil, "1.0.0")
		err := chain.DeleteDataset(ctx, "cats", chain.DeleteOptions{Session: sess, Version: "9.0.0"})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetVersionNotFound)
	})
	t.Run("missing-project-reads-as-missing-dataset", func(t *testing.T) {
		sess := newTestSession(t)
		err := chain.DeleteDataset(ctx, "elsewhere.nope.cats", chain.DeleteOptions{Session: sess})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDatasetNotFound)
	})
}

func TestDelta(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	seedDataset(t, sess, "cats", nil, "1.0.0", "1.2.0", "2.0.0")

	read := func(t *testing.T, name string, cfg *chain.DeltaConfig) (*chain.Chain, error) {
		t.Helper()
		return chain.ReadDataset(ctx, name, chain.ReadOptions{
			Session:    sess,
			NoFallback: true,
			Delta:      cfg,
		})
	}

	t.Run("defaults-and-previous-version", func(t *testing.T) {
		c, err := read(t, "cats@2.0.0", &chain.DeltaConfig{})
		qt.Assert(t, err, qt.IsNil)
		plan := c.DeltaPlan()
		qt.Assert(t, plan, qt.IsNotNil)
		qt.Check(t, plan.On, qt.DeepEquals, chain.DefaultDeltaOn)
		qt.Check(t, plan.PreviousVersion, qt.Equals, dfapi.VersionName("1.2.0"))
	})
	t.Run("oldest-version-has-no-previous", func(t *testing.T) {
		c, err := read(t, "cats@1.0.0", &chain.DeltaConfig{})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, c.DeltaPlan().PreviousVersion, qt.Equals, dfapi.VersionName(""))
	})
	t.Run("result-on-must-pair-up", func(t *testing.T) {
		_, err := read(t, "cats", &chain.DeltaConfig{ResultOn: []string{"only-one"}})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDeltaInvalid)
	})
	t.Run("retry-field-requires-name", func(t *testing.T) {
		_, err := read(t, "cats", &chain.DeltaConfig{Retry: chain.RetryByField})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDeltaInvalid)
	})
	t.Run("retry-missing-takes-no-field", func(t *testing.T) {
		_, err := read(t, "cats", &chain.DeltaConfig{Retry: chain.RetryMissing, RetryField: "err"})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDeltaInvalid)
	})
	t.Run("compare-field-must-be-in-schema", func(t *testing.T) {
		_, err := read(t, "cats", &chain.DeltaConfig{Compare: []string{"no-such-field"}})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDeltaInvalid)
	})
	t.Run("value-chains-cannot-delta", func(t *testing.T) {
		c, err := chain.Datasets(ctx, chain.ListOptions{Session: sess})
		qt.Assert(t, err, qt.IsNil)
		_, err = c.AsDelta(ctx, chain.DeltaConfig{})
		qt.Assert(t, serum.Code(err), qt.Equals, dfapi.CodeDeltaInvalid)
	})
}
