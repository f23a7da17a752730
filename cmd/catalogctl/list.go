package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"

	"github.com/xenking/glowcart/internal/domain/catalog"
	"github.com/xenking/glowcart/internal/domain/product"
	"github.com/xenking/glowcart/internal/domain/query"
)

func listCmd(opts *options) *cobra.Command {
	var (
		q      string
		search bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Refresh once and print the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			st := store.Refresh(zctx.Base(cmd.Context(), opts.lg))
			if st.Phase == catalog.Failed {
				return errors.Wrap(st.Err, "refresh catalog")
			}

			products := store.Products()
			if search {
				products = query.Search(products, q)
			} else {
				products = query.Filter(products, q)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), products)
			}
			return writeTable(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().StringVarP(&q, "query", "q", "", "case-insensitive title filter")
	cmd.Flags().BoolVar(&search, "search", false, "match the query against descriptions too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeTable(w io.Writer, products []product.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tBRAND\tPRICE\tRATING")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f (%d)\n",
			p.ID, p.Title, p.Brand, p.Price.StringFixed(2), p.Rating.Rate, p.Rating.Count)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, products []product.Product) error {
	var e jx.Encoder
	e.SetIdent(2)
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
				e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
				e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
				e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
				e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
				e.Field("rating", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("rate", func(e *jx.Encoder) { e.Float64(p.Rating.Rate) })
						e.Field("count", func(e *jx.Encoder) { e.Int(p.Rating.Count) })
					})
				})
			})
		}
	})
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
