package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
)

var editShow bool

func init() {
	editCmd.Flags().BoolVar(&editShow, "show", false, "print the file instead of opening an editor")
	rootCmd.AddCommand(editCmd)
}

// editCmd opens config.h or myAutomation.h for direct editing, for the
// settings the generated configuration does not cover.
var editCmd = &cobra.Command{
	Use:   "edit <product> <file>",
	Short: "Edit a generated configuration file directly",
	Long: `Open one of a product's configuration files in the editor named by
$VISUAL or $EDITOR. Only config.h and myAutomation.h can be edited this
way; the other generated files are managed by the installer.`,
	Args: cobra.ExactArgs(2),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	product := products.ByKey(args[0])
	if product == nil {
		product = products.ByName(args[0])
	}
	if product == nil {
		return fmt.Errorf("unknown product %q", args[0])
	}

	name := args[1]
	if !products.IsEditable(name) {
		return fmt.Errorf("%s cannot be edited directly, only %s",
			name, strings.Join(products.EditableFiles, " and "))
	}

	dir, err := fileman.InstallDir(product.Key)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)

	if editShow {
		contents, err := fileman.ReadTextFile(path)
		if err != nil {
			return fmt.Errorf("%s has not been generated yet: %w", name, err)
		}
		fmt.Print(contents)
		return nil
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return fmt.Errorf("set $EDITOR to edit files, or use --show to print %s", name)
	}

	changed, err := editFile(path, func(tmp string) error {
		ed := exec.Command(editor, tmp)
		ed.Stdin = os.Stdin
		ed.Stdout = os.Stdout
		ed.Stderr = os.Stderr
		return ed.Run()
	})
	if err != nil {
		return err
	}
	if !changed {
		fmt.Printf("No changes made to %s.\n", name)
		return nil
	}
	fmt.Printf("Saved %s.\n", path)
	return nil
}

// editFile runs edit against a scratch copy and only writes the result
// back when it differs, so an aborted editor session leaves the
// original file untouched.
func editFile(path string, edit func(tmp string) error) (bool, error) {
	contents, err := fileman.ReadTextFile(path)
	if err != nil {
		return false, fmt.Errorf("%s has not been generated yet: %w", filepath.Base(path), err)
	}

	tmp := filepath.Join(fileman.TempDir(), filepath.Base(path))
	if err := fileman.WriteTextFile(tmp, contents); err != nil {
		return false, err
	}
	defer os.Remove(tmp)

	if err := edit(tmp); err != nil {
		return false, fmt.Errorf("editor failed: %w", err)
	}

	edited, err := fileman.ReadTextFile(tmp)
	if err != nil {
		return false, err
	}
	if edited == contents {
		return false, nil
	}
	if err := fileman.WriteTextFile(path, edited); err != nil {
		return false, err
	}
	return true, nil
}
