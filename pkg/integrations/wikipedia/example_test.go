package wikipedia_test

import (
	"fmt"

	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
)

func ExampleBuildRequest() {
	u, err := wikipedia.BuildRequest(wikipedia.ActionSearch, "cat")
	if err != nil {
		panic(err)
	}
	fmt.Println(u)
	// Output:
	// https://en.wikipedia.org/w/api.php?action=query&format=json&list=search&srsearch=cat
}

func ExamplePlainText() {
	fmt.Println(wikipedia.PlainText(`The <span class="searchmatch">cat</span> sat (...)`))
	// Output:
	// The cat sat (...)
}
