package exec_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/snippetexec/exec"
	"github.com/jonwraymond/snippetexec/metrics"
)

func ExampleNew() {
	engine, err := exec.New(exec.Options{
		Metrics: metrics.NewMemoryStore(map[string]float64{"signups": 40, "visits": 800}),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	res, err := engine.Execute(context.Background(), `output = metric("signups") / metric("visits");`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(res.Envelope.Kind, res.Envelope.Value)
	// Output: scalar 0.05
}

func ExampleExec_ExecuteLegacy() {
	engine, _ := exec.New(exec.Options{})

	fmt.Println(engine.ExecuteLegacy(context.Background(), `output = [1, 2, 3].length;`))
	fmt.Println(engine.ExecuteLegacy(context.Background(), `require("os");`))
	// Output:
	// 3
	// map[error:capability "os" is not allowed]
}
