// Command countyctl operates the county entity store.
package main

import "github.com/leoashcraft/County-Connect-sub009/internal/cli"

func main() {
	cli.Execute()
}
