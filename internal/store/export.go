package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/dynamics"
)

// ExportData is the serialized form of one evaluation. Matrices are stored
// row-major as nested slices; gradient blocks keep the column-major
// flattening of dynamics.Result.
type ExportData struct {
	Model     string      `json:"model"`
	Engine    string      `json:"engine"`
	Q         []float64   `json:"q"`
	V         []float64   `json:"v"`
	Gradients bool        `json:"gradients"`
	H         [][]float64 `json:"H"`
	C         []float64   `json:"C"`
	B         [][]float64 `json:"B,omitempty"`
	DH        [][]float64 `json:"dH,omitempty"`
	DC        [][]float64 `json:"dC,omitempty"`
	DB        [][]float64 `json:"dB,omitempty"`
}

func NewExportData(model string, req dynamics.Request, res *dynamics.Result) ExportData {
	return ExportData{
		Model:     model,
		Engine:    res.Engine,
		Q:         req.Q,
		V:         req.V,
		Gradients: res.DH != nil,
		H:         rows(res.H),
		C:         mat.Col(nil, 0, res.C),
		B:         rows(res.B),
		DH:        rows(res.DH),
		DC:        rows(res.DC),
		DB:        rows(res.DB),
	}
}

// createFile opens an export destination.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// exportFile writes data to path with write. A failed Close is reported when
// the write itself succeeded.
func exportFile(path string, data ExportData, write func(io.Writer, ExportData) error) (err error) {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return write(file, data)
}

func ExportJSON(path string, data ExportData) error {
	return exportFile(path, data, WriteJSON)
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func LoadJSON(path string) (ExportData, error) {
	var data ExportData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, err
	}
	err = json.Unmarshal(raw, &data)
	return data, err
}

// WriteCSV writes every matrix entry as one "block,row,col,value" record.
func WriteCSV(w io.Writer, data ExportData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"block", "row", "col", "value"}); err != nil {
		return err
	}

	blocks := []struct {
		name string
		m    [][]float64
	}{
		{"H", data.H},
		{"C", column(data.C)},
		{"B", data.B},
		{"dH", data.DH},
		{"dC", data.DC},
		{"dB", data.DB},
	}
	for _, b := range blocks {
		for i, row := range b.m {
			for j, x := range row {
				rec := []string{b.name, strconv.Itoa(i), strconv.Itoa(j), strconv.FormatFloat(x, 'g', -1, 64)}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, data ExportData) error {
	return exportFile(path, data, WriteCSV)
}

func rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func column(x []float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, v := range x {
		out[i] = []float64{v}
	}
	return out
}
