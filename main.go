// @title           LocalTask Dispatch API
// @version         1.0
// @description     Nearby service task dispatch server: broadcasts quick-service
// @description     tasks to eligible providers, arbitrates the accept race and
// @description     verifies completion with a one-time code.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a JWT token
package main

import "github.com/sandeepshegane1/localtask-sub000/cmd"

func main() {
	cmd.Execute()
}
