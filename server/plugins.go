package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

func (s *Server) listPlugins(c *gin.Context) {
	installed, err := s.registry.List(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, http.StatusOK, len(installed), gin.H{"plugins": installed})
}

func (s *Server) installPlugin(c *gin.Context) {
	var req models.InstallPluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	plugin, created, err := s.registry.Install(userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	respond(c, code, gin.H{"plugin": plugin})
}

func (s *Server) createCustomPlugin(c *gin.Context) {
	var req models.InstallPluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	plugin, err := s.registry.CreateCustom(userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"plugin": plugin})
}

func (s *Server) pluginStore(c *gin.Context) {
	catalog := s.registry.Catalog()
	respondList(c, http.StatusOK, len(catalog), gin.H{"plugins": catalog})
}

func (s *Server) resolveManifest(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		respondError(c, errs.BadRequest("manifest url is required"))
		return
	}

	manifest, err := s.registry.ResolveManifestFromURL(c.Request.Context(), rawURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"manifest": manifest})
}

func (s *Server) updatePlugin(c *gin.Context) {
	var req models.UpdatePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	plugin, err := s.registry.Update(userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"plugin": plugin})
}

func (s *Server) updatePluginSettings(c *gin.Context) {
	var settings map[string]interface{}
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondBinding(c, err)
		return
	}

	plugin, err := s.registry.UpdateSettings(userID(c), c.Param("id"), settings)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"plugin": plugin})
}

func (s *Server) updatePluginManifest(c *gin.Context) {
	var manifest models.Manifest
	if err := c.ShouldBindJSON(&manifest); err != nil {
		respondBinding(c, err)
		return
	}

	plugin, err := s.registry.UpdateManifest(userID(c), c.Param("id"), &manifest)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"plugin": plugin})
}

func (s *Server) uninstallPlugin(c *gin.Context) {
	if err := s.registry.Uninstall(userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uninstallAllPlugins(c *gin.Context) {
	if err := s.registry.RemoveAll(userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
