package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/jessevdk/go-flags"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type Options struct {
	Dir    string `short:"d" long:"dir" description:"Assets directory" default:"assets"`
	Output string `short:"o" long:"out" description:"Output file name inside the assets directory" default:"index.html"`
}

type PageData struct {
	CSS string
	JS  string
	SVG string
}

// bundle minifies the page sources in dir and renders them into one HTML page.
func bundle(m *minify.M, dir string) (string, error) {
	read := func(name, mediatype string) (string, error) {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		out, err := m.String(mediatype, string(raw))
		if err != nil {
			return "", fmt.Errorf("minify %s: %w", name, err)
		}
		return out, nil
	}

	var data PageData
	var err error
	if data.CSS, err = read("style.css", "text/css"); err != nil {
		return "", err
	}
	if data.JS, err = read("script.js", "text/javascript"); err != nil {
		return "", err
	}
	if data.SVG, err = read("marker.svg", "image/svg+xml"); err != nil {
		return "", err
	}

	htmlRaw, err := os.ReadFile(filepath.Join(dir, "index.html.tpl"))
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}

	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return m.String("text/html", buf.String())
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	finalHTML, err := bundle(newMinifier(), opts.Dir)
	if err != nil {
		log.Fatal(err)
	}

	out := filepath.Join(opts.Dir, opts.Output)
	if err := os.WriteFile(out, []byte(finalHTML), 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("minify done: %s (%d bytes)\n", out, len(finalHTML))
}
