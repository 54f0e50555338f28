package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/rend/pack"
)

var (
	output = flag.String("o", "assets.rpk", "archive file to create")
	list   = flag.String("list", "", "print the index of an existing archive and exit")
	author = flag.String("author", "", "author recorded in the archive header")
)

func main() {
	flag.Parse()

	if *list != "" {
		listArchive(*list)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rendpack [-o archive.rpk] file...")
		fmt.Fprintln(os.Stderr, "       rendpack -list archive.rpk")
		os.Exit(2)
	}

	builder := pack.NewBuilder(pack.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     1,
	})

	for _, name := range flag.Args() {
		data, err := ioutil.ReadFile(name)
		if err != nil {
			log.WithError(err).Fatal("failed to read input file")
		}
		if err := builder.Add(filepath.Base(name), data); err != nil {
			log.WithError(err).Fatal("failed to compress entry")
		}
		log.WithFields(log.Fields{
			"entry": filepath.Base(name),
			"size":  len(data),
		}).Info("added")
	}

	file, err := os.Create(*output)
	if err != nil {
		log.WithError(err).Fatal("failed to create archive")
	}
	defer file.Close()

	written, err := builder.WriteTo(file)
	if err != nil {
		log.WithError(err).Fatal("failed to write archive")
	}
	log.WithFields(log.Fields{
		"archive": *output,
		"bytes":   written,
	}).Info("archive written")
}

func listArchive(name string) {
	file, err := os.Open(name)
	if err != nil {
		log.WithError(err).Fatal("failed to open archive")
	}
	defer file.Close()

	archive, err := pack.Open(file)
	if err != nil {
		log.WithError(err).Fatal("failed to read archive")
	}

	header := archive.Header()
	fmt.Printf("author: %s\ncreated: %s\nversion: %d\n",
		header.Author, time.Unix(header.DateCreated, 0).Format(time.RFC3339), header.Version)
	for _, entry := range header.Index {
		fmt.Printf("%-32s %8d -> %8d bytes\n", entry.Name, entry.Size, entry.CompressedSize)
	}
}
