package main

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fusedtensor/fusedtensor/diag"
	"github.com/fusedtensor/fusedtensor/envconfig"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a debug HTTP endpoint exposing demo graph dumps and dispatch stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery())
			router.GET("/graphz", graphzHandler)

			host := envconfig.Host()
			cmd.Printf("listening on %s\n", host)
			return router.Run(host.Host)
		},
	}
	return cmd
}

func graphzHandler(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter: name"})
		return
	}

	device := softwaregpu.New()
	demo, err := buildDemoGraph(device, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var dot bytes.Buffer
	if err := diag.Dump(&dot, demo.Store, demo.Root); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	counts := diag.DispatchCount(demo.Store, demo.Root)
	dispatch := make(map[string]int, len(counts))
	for _, kind := range diag.SortedKinds(counts) {
		dispatch[kind.String()] = counts[kind]
	}

	c.JSON(http.StatusOK, gin.H{
		"name":     demo.Name,
		"summary":  demo.Summary,
		"dot":      dot.String(),
		"dispatch": dispatch,
	})
}
