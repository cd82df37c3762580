package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"xgb/internal/config"
	"xgb/internal/errs"
	"xgb/internal/ledger"
)

// setParam rewrites one key of a project's params.yaml.
func setParam(path, key string, value any) {
	data, err := os.ReadFile(path)
	gomega.Expect(err).To(gomega.Succeed())
	var m map[string]any
	gomega.Expect(yaml.Unmarshal(data, &m)).To(gomega.Succeed())
	m[key] = value
	out, err := yaml.Marshal(m)
	gomega.Expect(err).To(gomega.Succeed())
	gomega.Expect(os.WriteFile(path, out, 0o644)).To(gomega.Succeed())
}

func writeCSV(dir, name string, rows int) string {
	var b strings.Builder
	b.WriteString("sepal,petal,label\n")
	for i := 0; i < rows; i++ {
		label, base := "setosa", 1.0
		if i%2 == 1 {
			label, base = "virginica", 6.0
		}
		fmt.Fprintf(&b, "%.1f,%.1f,%s\n", base+float64(i%5)/10, base*2+float64(i%3)/10, label)
	}
	path := filepath.Join(dir, name)
	gomega.Expect(os.WriteFile(path, []byte(b.String()), 0o644)).To(gomega.Succeed())
	return path
}

var _ = ginkgo.Describe("Workspace", func() {
	var (
		ctx  context.Context
		ws   *Workspace
		home string
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		home = ginkgo.GinkgoT().TempDir()
		v := config.New()
		v.Set(config.KeyHome, home)
		s, err := config.Load(v)
		gomega.Expect(err).To(gomega.Succeed())
		ws, err = Open(s)
		gomega.Expect(err).To(gomega.Succeed())
	})

	ginkgo.Describe("datasets", func() {
		ginkgo.It("lists an added dataset and rejects a duplicate without changes", func() {
			src := writeCSV(home, "d1.csv", 10)
			gomega.Expect(ws.AddDataset(ctx, src, "d1")).To(gomega.Succeed())
			gomega.Expect(ws.ListDatasets(ctx)).To(gomega.ContainElement("d1"))

			before, err := os.ReadFile(ws.Data.Path("d1"))
			gomega.Expect(err).To(gomega.Succeed())
			other := writeCSV(home, "other.csv", 4)
			err = ws.AddDataset(ctx, other, "d1")
			gomega.Expect(err).To(gomega.MatchError(errs.ErrAlreadyExists))
			gomega.Expect(os.ReadFile(ws.Data.Path("d1"))).To(gomega.Equal(before))
		})

		ginkgo.It("fails to remove a dataset that does not exist", func() {
			gomega.Expect(ws.RemoveDataset(ctx, "ghost")).To(gomega.MatchError(errs.ErrNotFound))
			gomega.Expect(ws.ListDatasets(ctx)).To(gomega.BeEmpty())
		})

		ginkgo.It("describes a dataset", func() {
			gomega.Expect(ws.AddDataset(ctx, writeCSV(home, "d.csv", 12), "d")).To(gomega.Succeed())
			s, err := ws.DescribeDataset(ctx, "d")
			gomega.Expect(err).To(gomega.Succeed())
			gomega.Expect(s.Rows).To(gomega.Equal(12))
			gomega.Expect(s.Columns).To(gomega.Equal([]string{"sepal", "petal", "label"}))
		})
	})

	ginkgo.Describe("projects", func() {
		ginkgo.It("fails to delete a project that does not exist", func() {
			gomega.Expect(ws.DeleteProject(ctx, "ghost")).To(gomega.MatchError(errs.ErrNotFound))
		})

		ginkgo.It("creates, lists and deletes a project", func() {
			gomega.Expect(ws.InitProject(ctx, "p1", ledger.Regression)).To(gomega.Succeed())
			gomega.Expect(ws.InitProject(ctx, "p1", ledger.Regression)).To(gomega.MatchError(errs.ErrAlreadyExists))
			gomega.Expect(ws.ListProjects(ctx)).To(gomega.Equal([]string{"p1"}))
			info, err := ws.ShowProject(ctx, "p1")
			gomega.Expect(err).To(gomega.Succeed())
			gomega.Expect(info.Name).To(gomega.Equal("p1"))
			gomega.Expect(info.PredictionType).To(gomega.Equal(ledger.Regression))
			gomega.Expect(ws.DeleteProject(ctx, "p1")).To(gomega.Succeed())
			gomega.Expect(ws.ListProjects(ctx)).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("training", func() {
		var params string

		ginkgo.BeforeEach(func() {
			gomega.Expect(ws.InitProject(ctx, "p1", ledger.Classification)).To(gomega.Succeed())
			var err error
			params, err = ws.ParamsPath(ctx, "p1")
			gomega.Expect(err).To(gomega.Succeed())
			setParam(params, "target_column", "label")
			setParam(params, "model_name", "iris")
			setParam(params, "n_estimators", 10)
			gomega.Expect(ws.AddDataset(ctx, writeCSV(home, "d1.csv", 30), "d1")).To(gomega.Succeed())
		})

		ginkgo.It("records one run and saves the model file", func() {
			res, err := ws.Train(ctx, "p1", "d1")
			gomega.Expect(err).To(gomega.Succeed())

			info, err := ws.ShowProject(ctx, "p1")
			gomega.Expect(err).To(gomega.Succeed())
			gomega.Expect(info.Models).To(gomega.HaveLen(1))
			run := info.Models[0]
			gomega.Expect(run.Dataset).To(gomega.Equal("d1"))
			gomega.Expect(run.Metrics.Values).To(gomega.HaveKey("Accuracy"))
			gomega.Expect(run.Metrics.Values).To(gomega.HaveKey("F1"))
			gomega.Expect(run.Metrics.Values).To(gomega.HaveKey("Precision"))
			gomega.Expect(run.Metrics.Values).To(gomega.HaveKey("Recall"))
			gomega.Expect(filepath.Join(home, "PROJECT-STORE", "p1", "models", "iris.json")).To(gomega.BeAnExistingFile())
			gomega.Expect(res.ModelPath).To(gomega.BeAnExistingFile())

			gomega.Expect(ws.Models(ctx, "p1")).To(gomega.Equal([]string{"iris"}))
		})

		ginkgo.It("fails with a config error and leaves the ledger alone when the target is missing", func() {
			setParam(params, "target_column", "species")
			ledgerPath := filepath.Join(home, "PROJECT-STORE", "p1", ledger.FileName)
			before, err := os.ReadFile(ledgerPath)
			gomega.Expect(err).To(gomega.Succeed())

			_, err = ws.Train(ctx, "p1", "d1")
			gomega.Expect(err).To(gomega.MatchError(errs.ErrConfig))
			gomega.Expect(os.ReadFile(ledgerPath)).To(gomega.Equal(before))
		})

		ginkgo.It("fails when the dataset or project is unknown", func() {
			_, err := ws.Train(ctx, "p1", "nope")
			gomega.Expect(err).To(gomega.MatchError(errs.ErrNotFound))
			_, err = ws.Train(ctx, "nope", "d1")
			gomega.Expect(err).To(gomega.MatchError(errs.ErrNotFound))
		})

		ginkgo.It("predicts every row with a saved model and can crown it champion", func() {
			_, err := ws.Train(ctx, "p1", "d1")
			gomega.Expect(err).To(gomega.Succeed())

			out, err := ws.Predict(ctx, "p1", "iris", "d1")
			gomega.Expect(err).To(gomega.Succeed())
			gomega.Expect(out.Columns).To(gomega.ContainElement("predicted_label"))
			preds, err := out.Column("predicted_label")
			gomega.Expect(err).To(gomega.Succeed())
			gomega.Expect(preds).To(gomega.HaveLen(30))
			gomega.Expect(preds).To(gomega.HaveEach(gomega.BeElementOf("setosa", "virginica")))

			gomega.Expect(ws.SetChampion(ctx, "p1", "iris")).To(gomega.Succeed())
			info, _ := ws.ShowProject(ctx, "p1")
			gomega.Expect(info.Champion).To(gomega.HaveValue(gomega.Equal("iris")))

			gomega.Expect(ws.DeleteModel(ctx, "p1", "iris")).To(gomega.Succeed())
			_, err = ws.Predict(ctx, "p1", "iris", "d1")
			gomega.Expect(err).To(gomega.MatchError(errs.ErrNotFound))
		})
	})
})
