package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/menucheckout/lib/myconfig"
)

func TestCommands(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	t.Run("Purge sessions on empty store", func(t *testing.T) {
		// setup
		out := &bytes.Buffer{}
		cmd := newRootCommand()
		cmd.SetOut(out)

		// when
		cmd.SetArgs([]string{"purge-sessions"})
		err := cmd.Execute()

		// then
		assert.NoError(t, err)
		assert.Equal(t, "Purged 0 expired checkout sessions\n", out.String())
	})

	t.Run("Services are wired", func(t *testing.T) {
		// setup
		c := context.TODO()
		cfg, err := myconfig.Load(viper.New())
		assert.NoError(t, err)
		router := mux.NewRouter()
		cleanup, err := registerServices(c, cfg, router)
		assert.NoError(t, err)
		defer cleanup()

		for _, path := range []string{"/_ah/warmup", "/tasks/purge-sessions"} {
			// when
			request := httptest.NewRequest(http.MethodGet, path, nil)
			response := httptest.NewRecorder()
			router.ServeHTTP(response, request)

			// then
			assert.Equal(t, http.StatusOK, response.Code, path)
		}
	})
}
