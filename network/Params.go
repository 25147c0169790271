package network

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
)

// Set copies the values of the source nodes into the destination
// nodes, in order. The destination nodes keep their own backing
// tensors, so later updates to either set of nodes do not affect the
// other.
func Set(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("set: number of nodes differ \n\twant(%v)"+
			"\n\thave(%v)", len(dest), len(source))
	}

	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("set: node %v shape mismatch \n\twant(%v)"+
				"\n\thave(%v)", i, dest[i].Shape(), source[i].Shape())
		}

		destData, ok := dest[i].Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("set: node %v is not a float64 tensor", i)
		}
		sourceData, ok := source[i].Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("set: node %v is not a float64 tensor", i)
		}
		copy(destData, sourceData)
	}
	return nil
}

// Params returns a copy of the values of the nodes, in order
func Params(nodes G.Nodes) ([][]float64, error) {
	params := make([][]float64, len(nodes))
	for i, node := range nodes {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("params: node %v is not a float64 tensor",
				i)
		}
		params[i] = append([]float64(nil), data...)
	}
	return params, nil
}

// SetParams sets the values of the nodes, in order, to params
func SetParams(nodes G.Nodes, params [][]float64) error {
	if len(nodes) != len(params) {
		return fmt.Errorf("setParams: number of parameter tensors differ "+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(params))
	}

	for i, node := range nodes {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("setParams: node %v is not a float64 tensor",
				i)
		}
		if len(data) != len(params[i]) {
			return fmt.Errorf("setParams: parameter tensor %v (%v) has "+
				"incorrect size \n\twant(%v)\n\thave(%v)", i, node.Name(),
				len(data), len(params[i]))
		}
		copy(data, params[i])
	}
	return nil
}

// EncodeParams gob-encodes the values of the nodes to w
func EncodeParams(w io.Writer, nodes G.Nodes) error {
	params, err := Params(nodes)
	if err != nil {
		return fmt.Errorf("encodeParams: %v", err)
	}

	if err := gob.NewEncoder(w).Encode(params); err != nil {
		return fmt.Errorf("encodeParams: could not encode: %v", err)
	}
	return nil
}

// DecodeParams decodes values encoded by EncodeParams from r into the
// nodes
func DecodeParams(r io.Reader, nodes G.Nodes) error {
	var params [][]float64
	if err := gob.NewDecoder(r).Decode(&params); err != nil {
		return fmt.Errorf("decodeParams: could not decode: %v", err)
	}

	if err := SetParams(nodes, params); err != nil {
		return fmt.Errorf("decodeParams: %v", err)
	}
	return nil
}

// SaveParams saves the values of the nodes to a file at path, creating
// parent directories as needed
func SaveParams(path string, nodes G.Nodes) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("saveParams: could not create directory: %v",
				err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saveParams: could not create file: %v", err)
	}
	defer file.Close()

	if err := EncodeParams(file, nodes); err != nil {
		return fmt.Errorf("saveParams: %v", err)
	}
	return file.Sync()
}

// LoadParams loads the values of the nodes from a file saved with
// SaveParams
func LoadParams(path string, nodes G.Nodes) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loadParams: could not open file: %v", err)
	}
	defer file.Close()

	if err := DecodeParams(file, nodes); err != nil {
		return fmt.Errorf("loadParams: %v", err)
	}
	return nil
}
