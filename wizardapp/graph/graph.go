// Package graph 컴파일된 추론 그래프 검증
package graph

import (
	"fmt"
	"io/ioutil"

	tf "github.com/tensorflow/tensorflow/tensorflow/go"
)

const (
	InputOperationName  string = "input"
	OutputOperationName string = "dense_decoded"
)

// Info 검증된 그래프 정보
type Info struct {
	Path       string `json:"path"`
	Bytes      int    `json:"bytes"`
	Operations int    `json:"operations"`
	Input      string `json:"input"`
	Output     string `json:"output"`
}

// Verify pbFile 을 읽어 입력/출력 연산이 있는 그래프인지 확인
func Verify(pbFile, input, output string) (Info, error) {
	var (
		b     []byte
		graph *tf.Graph
		err   error
	)

	if b, err = ioutil.ReadFile(pbFile); err != nil {
		return Info{}, fmt.Errorf("Fail to read graph: %s: %w", pbFile, err)
	}

	graph = tf.NewGraph()
	if err := graph.Import(b, ""); err != nil {
		return Info{}, fmt.Errorf("Fail to import graph: %w", err)
	}

	if graph.Operation(input) == nil {
		return Info{}, fmt.Errorf("No input operation in graph: %s", input)
	}
	if graph.Operation(output) == nil {
		return Info{}, fmt.Errorf("No output operation in graph: %s", output)
	}

	return Info{
		Path:       pbFile,
		Bytes:      len(b),
		Operations: len(graph.Operations()),
		Input:      input,
		Output:     output,
	}, nil
}
