package routes

import (
	"catalog-service/controllers"

	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers registered on the router.
type Controllers struct {
	Category *controllers.CategoryController
	Brand    *controllers.BrandController
	Tag      *controllers.TagController
	Product  *controllers.ProductController
	Bulk     *controllers.BulkController
	Upload   *controllers.UploadController
}

func RegisterRoutes(r *gin.Engine, c Controllers) {
	RegisterCategoryRoutes(r, c.Category)
	RegisterBrandRoutes(r, c.Brand)
	RegisterTagRoutes(r, c.Tag)
	RegisterProductRoutes(r, c.Product, c.Bulk)
	RegisterUploadRoutes(r, c.Upload)
}

func RegisterCategoryRoutes(r *gin.Engine, cc *controllers.CategoryController) {
	categoryRoutes := r.Group("/categories")
	{
		categoryRoutes.POST("", cc.CreateCategory)
		categoryRoutes.GET("", cc.GetCategories)
		categoryRoutes.GET("/parents", cc.GetParentCategories)
		categoryRoutes.GET("/tree", cc.GetCategoryTree)
		categoryRoutes.GET("/:id", cc.GetCategory)
		categoryRoutes.GET("/:id/subcategories", cc.GetSubcategories)
		categoryRoutes.PUT("/:id", cc.UpdateCategory)
		categoryRoutes.DELETE("/:id", cc.DeleteCategory)
	}
}

func RegisterBrandRoutes(r *gin.Engine, bc *controllers.BrandController) {
	brandRoutes := r.Group("/brands")
	{
		brandRoutes.POST("", bc.CreateBrand)
		brandRoutes.POST("/with-image", bc.CreateBrandWithImage)
		brandRoutes.GET("", bc.GetBrands)
		brandRoutes.GET("/:id", bc.GetBrand)
		brandRoutes.PUT("/:id", bc.UpdateBrand)
		brandRoutes.PUT("/:id/with-image", bc.UpdateBrandWithImage)
		brandRoutes.DELETE("/:id", bc.DeleteBrand)
	}
}

func RegisterTagRoutes(r *gin.Engine, tc *controllers.TagController) {
	tagRoutes := r.Group("/tags")
	{
		tagRoutes.POST("", tc.CreateTag)
		tagRoutes.GET("", tc.GetTags)
		tagRoutes.GET("/:id", tc.GetTag)
		tagRoutes.PUT("/:id", tc.UpdateTag)
		tagRoutes.DELETE("/:id", tc.DeleteTag)
	}
}

// RegisterProductRoutes registers the product and bulk routes. Static
// segments are registered before the :id routes.
func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController, bc *controllers.BulkController) {
	productRoutes := r.Group("/products")
	{
		productRoutes.POST("", pc.CreateProduct)
		productRoutes.GET("", pc.GetProducts)
		productRoutes.POST("/bulk", bc.BulkCreateProducts)
		productRoutes.PUT("/bulk", bc.BulkUpdateProducts)
		productRoutes.GET("/bulk/jobs/:id", bc.GetBulkJob)
		productRoutes.POST("/with-uploads", pc.CreateProductWithUploads)
		productRoutes.GET("/:id", pc.GetProduct)
		productRoutes.PUT("/:id", pc.UpdateProduct)
		productRoutes.PUT("/:id/with-uploads", pc.UpdateProductWithUploads)
		productRoutes.DELETE("/:id", pc.DeleteProduct)
		productRoutes.DELETE("/:id/images", pc.DeleteProductImage)
		productRoutes.DELETE("/:id/spec-sheets", pc.DeleteProductSpecSheet)
	}
}

func RegisterUploadRoutes(r *gin.Engine, uc *controllers.UploadController) {
	uploadRoutes := r.Group("/upload")
	{
		uploadRoutes.POST("/product-images", uc.UploadProductImages)
		uploadRoutes.POST("/spec-sheets", uc.UploadSpecSheets)
		uploadRoutes.POST("/brand-image", uc.UploadBrandImage)
		uploadRoutes.DELETE("/delete/*publicId", uc.DeleteFile)
	}
}
