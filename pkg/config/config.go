package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	RepoPath   = "./repo"
	ContentDir = "content"
	PublicPath = "./repo/public"
	PreviewURL = "/preview/"
	ListenAddr = ":8080"

	// Page settings
	DefaultLayout  = "default"
	SiteConfigFile = "cms.yml"

	// Cache settings
	CacheConcurrency = 20

	// Git settings
	GitUserEmail = "bot@dataset-cms.local"
	GitUserName  = "Dataset CMS Bot"
	GitBranch    = "main"
	GitRemote    = "origin"
)

var OauthConf *oauth2.Config

func Init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}

	appURL := getEnv("APP_URL", "http://localhost:8080")
	redirectURL := getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/callback")

	RepoPath = getEnv("REPO_PATH", "./repo")
	ContentDir = getEnv("CONTENT_DIR", "content")
	PublicPath = getEnv("PUBLIC_PATH", RepoPath+"/public")
	ListenAddr = getEnv("LISTEN_ADDR", ":8080")

	DefaultLayout = getEnv("DEFAULT_LAYOUT", "default")
	SiteConfigFile = getEnv("SITE_CONFIG_FILE", "cms.yml")

	GitUserEmail = getEnv("GIT_USER_EMAIL", "bot@dataset-cms.local")
	GitUserName = getEnv("GIT_USER_NAME", "Dataset CMS Bot")
	GitBranch = getEnv("GIT_BRANCH", "main")
	GitRemote = getEnv("GIT_REMOTE", "origin")

	if cc := os.Getenv("CACHE_CONCURRENCY"); cc != "" {
		if val, err := strconv.Atoi(cc); err == nil && val > 0 {
			CacheConcurrency = val
		}
	}

	OauthConf = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
}

func GetAppURL() string {
	return getEnv("APP_URL", "http://localhost:8080")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
