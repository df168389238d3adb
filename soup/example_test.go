package soup_test

import (
	"context"
	"fmt"

	"github.com/modelhike/modelhike-sub001/soup"
)

func Example() {
	sb := soup.New(soup.WithVars(map[string]any{
		"entity": "order item",
		"fields": []string{"id", "name"},
	}))

	out, err := sb.RenderString(context.Background(), "example.teso", `
class {{ entity | pascal-case }} {
:for f in fields
    private String {{ f }};
:end-for
}
`)
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Print(out.Text)
	// Output:
	// class OrderItem {
	//     private String id;
	//     private String name;
	// }
}

func ExampleSandbox_Eval() {
	sb := soup.New(soup.WithVars(map[string]any{"n": 4}))

	v, _ := sb.Eval(context.Background(), `n * 2 > 5 and "a" in ["a", "b"]`)
	fmt.Println(v)
	// Output: true
}
