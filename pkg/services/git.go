package services

import (
	"dataset-cms/pkg/config"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExecuteGitWithToken runs git in dir with the configured remote replaced by
// an authenticated URL. The token never appears in the returned log.
func ExecuteGitWithToken(dir, token string, args ...string) (string, error) {
	cmdGetUrl := exec.Command("git", "remote", "get-url", config.GitRemote)
	cmdGetUrl.Dir = dir
	outUrl, err := cmdGetUrl.Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteUrl := strings.TrimSpace(string(outUrl))
	u, err := url.Parse(remoteUrl)
	if err != nil {
		return "Invalid remote url", err
	}
	u.User = url.UserPassword("oauth2", token)
	authenticatedUrl := u.String()
	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == config.GitRemote {
			newArgs[i] = authenticatedUrl
		}
	}
	cmd := exec.Command("git", newArgs...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return redactToken(string(output), token, authenticatedUrl, remoteUrl), err
}

func redactToken(log, token, authenticatedUrl, remoteUrl string) string {
	safeLog := strings.ReplaceAll(log, authenticatedUrl, remoteUrl)
	if token != "" {
		safeLog = strings.ReplaceAll(safeLog, token, "***")
	}
	return safeLog
}

// SyncRepo pulls the content repository and drops the page cache.
func SyncRepo(token string) (string, error) {
	log, err := ExecuteGitWithToken(config.RepoPath, token, "pull", config.GitRemote, config.GitBranch)
	if err == nil {
		InvalidateCache()
	}
	return log, err
}

// PublishRepo commits every content change and pushes it.
func PublishRepo(token string) (string, error) {
	addCmd := exec.Command("git", "add", ".")
	addCmd.Dir = config.RepoPath
	if out, err := addCmd.CombinedOutput(); err != nil {
		return string(out), err
	}
	msg := fmt.Sprintf("Update dataset pages: %s", time.Now().Format("2006-01-02 15:04:05"))
	commitCmd := exec.Command("git",
		"-c", "user.name="+config.GitUserName,
		"-c", "user.email="+config.GitUserEmail,
		"commit", "-m", msg,
	)
	commitCmd.Dir = config.RepoPath
	commitCmd.Env = append(os.Environ(), "LC_ALL=C")
	commitOut, err := commitCmd.CombinedOutput()
	if err != nil && !nothingToCommit(string(commitOut)) {
		return string(commitOut), fmt.Errorf("git commit: %w", err)
	}

	pushLog, err := ExecuteGitWithToken(config.RepoPath, token, "push", config.GitRemote, config.GitBranch)
	return string(commitOut) + pushLog, err
}

// nothingToCommit reports whether a failed commit only found a clean tree,
// in which case earlier commits may still need pushing.
func nothingToCommit(out string) bool {
	return strings.Contains(out, "nothing to commit") ||
		strings.Contains(out, "nothing added to commit")
}
