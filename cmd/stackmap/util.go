package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"

	"github.com/deepnoodle-ai/stackmap/errors"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = red(msg)
	case errors.FormattableError:
		s = errors.NewFormatter(!color.NoColor).Format(msg.ToFormatted())
	case error:
		s = red(msg.Error())
	default:
		s = red(fmt.Sprintf("%v", msg))
	}
	fmt.Fprintf(os.Stderr, "%s\n", s)
	os.Exit(1)
}

func (a *app) printJSON(v any) error {
	var data []byte
	var err error
	if color.NoColor {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = prettyjson.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
