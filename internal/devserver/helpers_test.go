package devserver

import (
	"io"
	"log/slog"
	"testing/fstest"

	"github.com/shaharia-lab/coffeebar/internal/config"
)

const indexHTML = "<!doctype html><html><body><div id=\"app\"></div></body></html>"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":        {Data: []byte(indexHTML)},
		"assets/app.js":     {Data: []byte("console.log('app')")},
		"assets/style.css":  {Data: []byte("body{}")},
		"docs/guide/a.html": {Data: []byte("<p>guide</p>")},
	}
}

func testConfig(target string, changeOrigin bool) *config.DevServerConfig {
	return &config.DevServerConfig{
		Plugins: []string{config.VuePlugin},
		Server: config.DevServerOptions{
			Port: config.DevServerPort,
			Proxy: map[string]config.ProxyRule{
				config.APIProxyPrefix: {Target: target, ChangeOrigin: changeOrigin},
			},
		},
	}
}
