package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sir_venger/omnifileserve/pkg/fileclient"
)

const defaultServer = "http://localhost:2425"

type globals struct {
	server     string
	noProgress bool
	retries    uint
}

func (g *globals) client() *fileclient.Client {
	opts := []fileclient.Option{fileclient.WithRetry(g.retries, 300*time.Millisecond)}
	if !g.noProgress {
		opts = append(opts, fileclient.WithProgress(os.Stderr))
	}
	return fileclient.New(g.server, opts...)
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:          "filectl",
		Short:        "Клиент файлового сервиса",
		SilenceUsage: true,
	}

	server := defaultServer
	if v := os.Getenv("FILESERVE_URL"); v != "" {
		server = v
	}
	root.PersistentFlags().StringVarP(&g.server, "server", "s", server, "адрес сервиса (FILESERVE_URL)")
	root.PersistentFlags().UintVar(&g.retries, "retries", 3, "попыток для чтения, списка и health")
	root.PersistentFlags().BoolVar(&g.noProgress, "no-progress", false, "не рисовать индикатор передачи")

	root.AddCommand(
		newPushCmd(g),
		newPutCmd(g),
		newCatCmd(g),
		newRmCmd(g),
		newLsCmd(g),
		newPullCmd(g),
	)
	return root
}

// openLocal открывает локальный файл и возвращает его размер для индикатора.
func openLocal(name string) (*os.File, int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%s is a directory", name)
	}
	return f, info.Size(), nil
}

func newPushCmd(g *globals) *cobra.Command {
	var dir, name string

	cmd := &cobra.Command{
		Use:   "push <local>",
		Short: "Загрузить новый файл (ошибка, если он уже есть)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, size, err := openLocal(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(args[0])
			}
			res, err := g.client().Upload(cmd.Context(), f, size, name, dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "каталог назначения на сервере")
	cmd.Flags().StringVarP(&name, "name", "n", "", "имя на сервере (по умолчанию имя локального файла)")
	return cmd
}

func newPutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Записать файл по пути, заменяя существующий",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, size, err := openLocal(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := g.client().Replace(cmd.Context(), args[1], f, size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newCatCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <remote>",
		Short: "Вывести текстовый файл",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.client().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.Content)
			return err
		},
	}
}

func newRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <remote>",
		Short: "Удалить файл",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.client().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newLsCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "Рекурсивно перечислить файлы",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			files, err := g.client().List(cmd.Context(), dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(files)
			}
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывести JSON-массив")
	return cmd
}

func newPullCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <remote> [local]",
		Short: "Скачать файл; без [local] сохраняет под базовым именем в текущий каталог",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local := path.Base(args[0])
			if len(args) == 2 {
				local = args[1]
			}
			if local == "-" {
				_, err := g.client().Pull(cmd.Context(), args[0], cmd.OutOrStdout())
				return err
			}

			tmp, err := os.CreateTemp(filepath.Dir(local), ".filectl-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			if _, err = g.client().Pull(cmd.Context(), args[0], tmp); err != nil {
				_ = tmp.Close()
				return err
			}
			if err = tmp.Chmod(0o644); err != nil {
				_ = tmp.Close()
				return err
			}
			if err = tmp.Close(); err != nil {
				return err
			}
			if err = os.Rename(tmp.Name(), local); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", local)
			return nil
		},
	}
}
