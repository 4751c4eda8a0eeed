package version

import (
	"fmt"

	"github.com/crowdsecurity/go-cs-lib/version"
)

func FullString() string {
	ret := fmt.Sprintf("version: %s\n", version.String())
	ret += fmt.Sprintf("BuildDate: %s\n", version.BuildDate)
	ret += fmt.Sprintf("GoVersion: %s\n", version.GoVersion)
	ret += fmt.Sprintf("Platform: %s\n", version.System)

	return ret
}

func Show() {
	fmt.Print(FullString())
}
