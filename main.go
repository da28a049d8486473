package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"dataset-cms/pkg/config"
	"dataset-cms/pkg/handlers"
	"dataset-cms/pkg/models"
	"dataset-cms/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Init()
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		log.Fatalf("Failed to load site config: %v", err)
	}
	config.Apply(cfg)

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkFormat := checkCmd.String("format", "", "also render the page in this format (html, text, markdown, json)")

	if len(os.Args) < 2 {
		runServe()
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe()
	case "build":
		runBuild(cfg)
	case "check":
		checkCmd.Parse(os.Args[2:])
		if checkCmd.NArg() != 1 {
			fmt.Println("Usage: dataset-cms check [--format <format>] <file>")
			os.Exit(1)
		}
		if err := runCheck(checkCmd.Arg(0), *checkFormat); err != nil {
			log.Fatalf("%s: %v", checkCmd.Arg(0), err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Commands:")
		fmt.Println("  serve  - Runs the CMS server (default)")
		fmt.Println("  build  - Renders every page into the public directory")
		fmt.Println("  check  - Validates a single page document")
		os.Exit(1)
	}
}

func runServe() {
	r := newRouter(os.Getenv("SESSION_SECRET"))
	if err := r.Run(config.ListenAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func runBuild(cfg *models.CMSConfig) {
	out, err := services.BuildSite(cfg)
	fmt.Print(out)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	fmt.Println("Static site generation complete!")
}

func runCheck(path, format string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	page, err := services.LoadPage(content)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %s\n", page.Title)
	if format == "" {
		return nil
	}
	out, err := services.RenderPage(page, format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func newRouter(sessionSecret string) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("datasetcms", store))

	r.Static(config.PreviewURL, config.PublicPath)

	// --- Public Routes ---
	r.GET("/", handlers.ServeIndex)
	r.GET("/pages/*slug", handlers.ServePage)

	// --- Auth Routes ---
	r.GET("/login", handlers.GithubLogin)
	r.GET("/auth/callback", handlers.AuthCallback)
	r.GET("/logout", handlers.Logout)

	api := r.Group("/api")
	{
		api.GET("/pages", handlers.ListPages)
		api.GET("/page", handlers.GetPage)
		api.POST("/render", handlers.RenderDocument)
		api.GET("/config", handlers.GetConfig)
	}

	// --- Maintainer Routes ---
	authorized := api.Group("/")
	authorized.Use(handlers.AuthRequired)
	{
		authorized.POST("/page", handlers.SavePage)
		authorized.POST("/create", handlers.CreatePage)
		authorized.POST("/build", handlers.HandleBuild)
		authorized.POST("/sync", handlers.HandleSync)
		authorized.POST("/publish", handlers.HandlePublish)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}
