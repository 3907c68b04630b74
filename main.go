package main

import "github.com/clipforge/clipper-api/cmd"

// @title           ClipForge API
// @version         1.0.0
// @description     Turn long-form videos into short, subtitled clips
// @contact.name    API Support
// @contact.url     https://github.com/clipforge/clipper-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
