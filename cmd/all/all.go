// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/meocloud-go/meocloud/cmd"
	_ "github.com/meocloud-go/meocloud/cmd/about"
	_ "github.com/meocloud-go/meocloud/cmd/cat"
	_ "github.com/meocloud-go/meocloud/cmd/config"
	_ "github.com/meocloud-go/meocloud/cmd/copyto"
	_ "github.com/meocloud-go/meocloud/cmd/delete"
	_ "github.com/meocloud-go/meocloud/cmd/link"
	_ "github.com/meocloud-go/meocloud/cmd/metadata"
	_ "github.com/meocloud-go/meocloud/cmd/mkdir"
	_ "github.com/meocloud-go/meocloud/cmd/moveto"
	_ "github.com/meocloud-go/meocloud/cmd/rcat"
	_ "github.com/meocloud-go/meocloud/cmd/version"
	_ "github.com/meocloud-go/meocloud/cmd/watch"
)
