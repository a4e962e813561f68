// Package web 内嵌模板和静态资源
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates 模板目录
func Templates() fs.FS {
	sub, _ := fs.Sub(files, "templates")
	return sub
}

// Static 静态资源目录
func Static() fs.FS {
	sub, _ := fs.Sub(files, "static")
	return sub
}
