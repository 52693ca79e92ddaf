package swap

import "github.com/gin-gonic/gin"

type IHandler interface {
	Initiate(c *gin.Context)
	Status(c *gin.Context)
	AttachDeposit(c *gin.Context)
	History(c *gin.Context)
	Tokens(c *gin.Context)
}
