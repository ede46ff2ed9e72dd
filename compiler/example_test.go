package compiler

import (
	"fmt"
	"strings"
)

func ExampleCompiler_Compile() {
	c := NewCompiler()

	compiled, err := c.Compile("cost_flow_cap<0 AND not flow_cap_max")
	if err != nil {
		panic(err)
	}

	fmt.Println(strings.Join(compiled.Attributes(), " "))
	// Output: cost_flow_cap flow_cap_max
}
